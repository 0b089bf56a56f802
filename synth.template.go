package synth

import (
	"context"

	"go.uber.org/zap"

	"github.com/itsatony/go-synth/internal"
)

// Template represents a parsed template that can be executed multiple times.
// Its AST is never modified by rendering.
type Template struct {
	source  string
	dialect *Dialect
	ast     *internal.RootNode
	engine  *Engine
}

func newTemplate(source string, dialect *Dialect, ast *internal.RootNode, engine *Engine) *Template {
	return &Template{
		source:  source,
		dialect: dialect,
		ast:     ast,
		engine:  engine,
	}
}

// Execute renders the template against a fresh context seeded with data.
// The data map is copied, never modified.
func (t *Template) Execute(ctx context.Context, data map[string]any) (string, error) {
	renderCtx := internal.NewContext(ctx, data, t.engine.contextOptions(t.dialect))
	out, err := t.engine.renderer.Render(t.ast, renderCtx)
	if err != nil {
		return "", wrapError(err)
	}
	t.engine.logger.Debug(LogMsgTemplateRendered,
		zap.String(LogFieldDialect, t.dialect.Name),
		zap.Int(LogFieldLength, len(out)),
	)
	return out, nil
}

// Source returns the template source text.
func (t *Template) Source() string {
	return t.source
}

// Dialect returns the name of the dialect the template was parsed in.
func (t *Template) Dialect() string {
	return t.dialect.Name
}

// String returns a debug dump of the parsed tree.
func (t *Template) String() string {
	return t.ast.String()
}
