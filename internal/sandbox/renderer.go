// Package sandbox renders validated components into isolated preview documents.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uigen/internal/domain"
	"uigen/internal/storage"
	"uigen/internal/validator"
)

// DefaultReadyTimeout is how long a host waits for preview:ready.
const DefaultReadyTimeout = 5 * time.Second

// Mode tells how a preview document was produced.
type Mode string

const (
	ModeProvided Mode = "provided"
	ModeCompiled Mode = "compiled"
	ModeError    Mode = "error"
)

// Options configure a Renderer.
type Options struct {
	// BaseURL prefixes preview handles, e.g. "/v1/previews".
	BaseURL      string
	ReadyTimeout time.Duration
	Store        DocumentStore
}

// Input is the component to preview. Key identifies what is being previewed; each
// render of the same key replaces the previous preview.
type Input struct {
	Key         string
	Name        string
	Category    domain.Category
	Code        string
	PreviewHTML string
	Props       []domain.PropDescriptor
	Theme       domain.Theme
}

// InputFor previews a stored component.
func InputFor(c *domain.Component, theme domain.Theme) Input {
	return Input{
		Key:         c.ID,
		Name:        c.Name,
		Category:    c.Category,
		Code:        c.Code,
		PreviewHTML: c.PreviewHTML,
		Props:       c.Props,
		Theme:       theme,
	}
}

// Preview references a rendered document.
type Preview struct {
	Handle         string `json:"handle"`
	Channel        string `json:"channel"`
	URL            string `json:"url"`
	HostURL        string `json:"host_url"`
	Sandbox        string `json:"sandbox"`
	ReadyTimeoutMS int64  `json:"ready_timeout_ms"`
	Mode           Mode   `json:"mode"`
	Error          string `json:"error,omitempty"`
}

// Renderer builds preview documents. Only code the validator accepts is ever rendered.
type Renderer struct {
	validator    *validator.Validator
	handles      *handles
	baseURL      string
	readyTimeout time.Duration
	log          zerolog.Logger
	newID        func() string
}

func NewRenderer(v *validator.Validator, opts Options, log zerolog.Logger) *Renderer {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	return &Renderer{
		validator:    v,
		handles:      newHandles(opts.Store),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		readyTimeout: opts.ReadyTimeout,
		log:          log.With().Str("component", "sandbox").Logger(),
		newID:        uuid.NewString,
	}
}

// Render produces and registers a preview. Compile and shim problems still yield a
// preview: the document shows the error and reports it to the host.
func (r *Renderer) Render(ctx context.Context, in Input) (Preview, error) {
	outcome := r.validator.Validate(ctx, in.Code, in.Category)
	if !outcome.Valid {
		return Preview{}, fmt.Errorf("%w: %d error finding(s)", ErrUnsafeCode, len(outcome.Errors()))
	}

	key := in.Key
	if key == "" {
		key = in.Name
	}
	handle, channel := r.newID(), r.newID()
	doc, mode, renderErr := r.document(ctx, in, channel)
	if err := r.handles.register(ctx, key, handle, []byte(doc)); err != nil {
		return Preview{}, err
	}

	p := Preview{
		Handle:         handle,
		Channel:        channel,
		URL:            r.baseURL + "/" + handle,
		HostURL:        r.baseURL + "/" + handle + "/host",
		Sandbox:        SandboxAttributes,
		ReadyTimeoutMS: r.readyTimeout.Milliseconds(),
		Mode:           mode,
	}
	ev := r.log.Debug()
	if renderErr != nil {
		p.Error = renderErr.Error()
		ev = r.log.Warn().Err(renderErr)
	}
	ev.Str("key", key).Str("handle", handle).Str("mode", string(mode)).Msg("sandbox: preview rendered")
	return p, nil
}

// document prefers the supplied preview document, but only when its own scripts pass
// the same checks as component code. Anything else is compiled from in.Code.
func (r *Renderer) document(ctx context.Context, in Input, channel string) (string, Mode, error) {
	title := in.Name
	if title == "" {
		title = "Preview"
	}
	if looksLikeDocument(in.PreviewHTML) {
		verdict := r.validator.ValidateDocument(ctx, in.PreviewHTML)
		if verdict.Valid {
			return injectBridge(in.PreviewHTML, channel), ModeProvided, nil
		}
		r.log.Warn().Str("name", in.Name).Int("errors", len(verdict.Errors())).
			Msg("sandbox: supplied preview document rejected, compiling component instead")
	}
	compiled, err := compileForPreview(in.Code)
	if err != nil {
		return renderErrorDocument(title, channel, err), ModeError, err
	}
	modules, err := moduleTable(in.Code)
	if err != nil {
		return renderErrorDocument(title, channel, err), ModeError, err
	}
	return renderComponentDocument(componentDocument{
		Title:    title,
		Channel:  channel,
		Theme:    in.Theme,
		Category: in.Category,
		Modules:  modules,
		Compiled: compiled,
		Props:    sampleProps(in.Props),
	}), ModeCompiled, nil
}

// Document returns a registered preview document.
func (r *Renderer) Document(ctx context.Context, handle string) ([]byte, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return nil, ErrPreviewNotFound
	}
	return r.handles.document(ctx, handle)
}

// Release drops a preview handle.
func (r *Renderer) Release(ctx context.Context, handle string) error {
	if _, err := uuid.Parse(handle); err != nil {
		return ErrPreviewNotFound
	}
	return r.handles.release(ctx, handle)
}

// Current returns the live handle for key, if any.
func (r *Renderer) Current(key string) (string, bool) {
	return r.handles.current(key)
}

// Host returns the embedding page for a preview.
func (r *Renderer) Host(p Preview, title string) string {
	return HostDocument(p, title)
}

// HostFor rebuilds the embedding page for a registered handle. The channel is read
// back from the stored document.
func (r *Renderer) HostFor(ctx context.Context, handle string) (string, error) {
	doc, err := r.Document(ctx, handle)
	if err != nil {
		return "", err
	}
	channel := channelOf(string(doc))
	return HostDocument(Preview{
		Handle:         handle,
		Channel:        channel,
		URL:            r.baseURL + "/" + handle,
		Sandbox:        SandboxAttributes,
		ReadyTimeoutMS: r.readyTimeout.Milliseconds(),
	}, titleOf(string(doc))), nil
}
