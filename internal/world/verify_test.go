package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedSymbolName(t *testing.T) {
	// At most the first three words are considered; stop words drop out.
	assert.Equal(t, "CreateBackupArchives", ExpectedSymbolName("Create backup archives"))
	assert.Equal(t, "System", ExpectedSymbolName("The system must validate input"))
	assert.Equal(t, "ParseConfiguration", ExpectedSymbolName("parse configuration"))
	assert.Equal(t, "", ExpectedSymbolName(""))
	assert.Equal(t, "", ExpectedSymbolName("a the of"))
}

func TestVerifySignaturePrefersExactArity(t *testing.T) {
	idx := NewIndex([]*ParsedFile{{
		Path: "a.go",
		Symbols: []Symbol{
			{Name: "Encode", Kind: KindFunction, File: "a.go", Line: 1, ParamCount: 1},
			{Name: "Encode", Kind: KindFunction, File: "a.go", Line: 9, ParamCount: 3},
		},
	}})

	v := VerifySignature(idx, "Encode", 3)
	require.True(t, v.Found)
	assert.True(t, v.ExactName)
	assert.True(t, v.ArityMatch)
	assert.Equal(t, 9, v.Symbol.Line)
}

func TestVerifySignatureArityMismatchFallback(t *testing.T) {
	idx := NewIndex([]*ParsedFile{{
		Path:    "a.go",
		Symbols: []Symbol{{Name: "Encode", Kind: KindFunction, File: "a.go", Line: 1, ParamCount: 1}},
	}})

	v := VerifySignature(idx, "Encode", 4)
	require.True(t, v.Found)
	assert.False(t, v.ArityMatch)
}

func TestVerifySignatureVariantMatch(t *testing.T) {
	idx := NewIndex([]*ParsedFile{{
		Path:    "a.py",
		Symbols: []Symbol{{Name: "create_backup", Kind: KindFunction, File: "a.py", Line: 1, ParamCount: 2}},
	}})

	v := VerifySignature(idx, "CreateBackup", -1)
	require.True(t, v.Found)
	assert.False(t, v.ExactName)
	assert.True(t, v.ArityMatch) // unconstrained arity always matches
}

func TestVerifySignatureNotFound(t *testing.T) {
	idx := NewIndex(nil)
	v := VerifySignature(idx, "Anything", -1)
	assert.False(t, v.Found)
	assert.Nil(t, v.Symbol)
}
