package synth_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/go-synth"
)

func TestErrorConstructors(t *testing.T) {
	pos := synth.Position{Line: 3, Column: 7, Offset: 21}

	tests := []struct {
		name   string
		err    error
		target error
		kind   string
		meta   map[string]string
	}{
		{
			name:   "syntax",
			err:    synth.NewSyntaxError("bad", pos),
			target: synth.ErrSyntax,
			kind:   synth.KindNameSyntax,
			meta:   map[string]string{synth.MetaKeyLine: "3", synth.MetaKeyColumn: "7", synth.MetaKeyOffset: "21"},
		},
		{
			name:   "lookup",
			err:    synth.NewLookupError("gone", "thing"),
			target: synth.ErrLookup,
			kind:   synth.KindNameLookup,
			meta:   map[string]string{synth.MetaKeyName: "thing"},
		},
		{
			name:   "template not found",
			err:    synth.NewTemplateNotFoundError("page"),
			target: synth.ErrLookup,
			kind:   synth.KindNameLookup,
			meta:   map[string]string{synth.MetaKeyName: "page"},
		},
		{
			name:   "unbalanced block",
			err:    synth.NewUnbalancedBlockError("for", pos),
			target: synth.ErrUnbalancedBlock,
			kind:   synth.KindNameUnbalanced,
			meta:   map[string]string{synth.MetaKeyName: "for", synth.MetaKeyLine: "3"},
		},
		{
			name:   "unexpected tag",
			err:    synth.NewUnexpectedTagError("endfor", pos),
			target: synth.ErrUnexpectedTag,
			kind:   synth.KindNameUnexpectedTag,
			meta:   map[string]string{synth.MetaKeyName: "endfor"},
		},
		{
			name:   "render",
			err:    synth.NewRenderError("boom", "mytag", io.ErrUnexpectedEOF),
			target: io.ErrUnexpectedEOF,
			kind:   synth.KindNameRender,
			meta:   map[string]string{synth.MetaKeyName: "mytag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, errors.Is(tt.err, tt.target), "got %v", tt.err)
			assert.Equal(t, tt.kind, synth.ErrorKind(tt.err))
			assert.Equal(t, tt.kind, errMeta(t, tt.err, synth.MetaKeyKind))
			for key, want := range tt.meta {
				assert.Equal(t, want, errMeta(t, tt.err, key), "metadata %s", key)
			}
		})
	}
}

func TestErrorKind_Refinements(t *testing.T) {
	assert.True(t, errors.Is(synth.ErrUndefinedVariable, synth.ErrLookup))
	assert.True(t, errors.Is(synth.ErrUnknownFilter, synth.ErrLookup))

	assert.Equal(t, synth.KindNameUndefinedVariable, synth.ErrorKind(synth.ErrUndefinedVariable))
	assert.Equal(t, synth.KindNameUnknownFilter, synth.ErrorKind(synth.ErrUnknownFilter))
	assert.Equal(t, "", synth.ErrorKind(nil))
	assert.Equal(t, "", synth.ErrorKind(errors.New("foreign")))
}

func TestNonTemplateErrors(t *testing.T) {
	dialect := synth.NewUnknownDialectError("latex")
	assert.Equal(t, "latex", errMeta(t, dialect, synth.MetaKeyDialect))
	assert.Equal(t, "", synth.ErrorKind(dialect))

	config := synth.NewConfigError(synth.ErrMsgInvalidMaxDepth, nil)
	require.Error(t, config)

	cause := errors.New("connection reset")
	source := synth.NewSourceError(synth.ErrMsgSourceFailed, "page", cause)
	assert.True(t, errors.Is(source, cause))
	assert.Equal(t, "page", errMeta(t, source, synth.MetaKeyTemplate))

	closed := synth.NewSourceError(synth.ErrMsgSourceClosed, "", nil)
	assert.Contains(t, closed.Error(), synth.ErrMsgSourceClosed)
}
