package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"uigen/internal/validator"
)

var (
	ErrUnsafeCode        = errors.New("component did not pass validation")
	ErrUnsupportedModule = errors.New("module has no preview shim")
	ErrCompile           = errors.New("component failed to compile for preview")
	ErrPreviewNotFound   = errors.New("preview not found")
)

// compileForPreview turns TSX into a CommonJS body. Types, imports and exports are
// removed by the compiler; imports become require calls served by the shim table.
func compileForPreview(code string) (string, error) {
	opts := validator.CompileOptions()
	opts.Format = api.FormatCommonJS
	opts.Sourcefile = "Preview.tsx"
	res := api.Transform(code, opts)
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, m := range res.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d %s", m.Location.Line, m.Location.Column+1, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("%w: %s", ErrCompile, strings.Join(msgs, "; "))
	}
	return string(res.Code), nil
}
