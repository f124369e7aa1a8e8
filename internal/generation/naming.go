package generation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"uigen/internal/domain"
	"uigen/internal/validator"
)

// MaxNameProbes is how many numbered suffixes are tried before falling back to a timestamp.
const MaxNameProbes = 10

var nameTitle = cases.Title(language.English, cases.NoLower)

// PascalName turns a proposed name into an exported TSX identifier.
func PascalName(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(nameTitle.String(w))
	}
	name := b.String()
	if name == "" {
		return "Component"
	}
	if first := rune(name[0]); !unicode.IsLetter(first) || first > unicode.MaxASCII {
		name = "Component" + name
	}
	return name
}

// Namer allocates unique catalog names. Allocation is optimistic: the catalog's unique
// constraint is the final arbiter and callers re-probe on conflict.
type Namer struct {
	components domain.ComponentRepository
	maxProbes  int
	now        func() time.Time
}

func NewNamer(components domain.ComponentRepository, maxProbes int) *Namer {
	if maxProbes <= 0 {
		maxProbes = MaxNameProbes
	}
	return &Namer{components: components, maxProbes: maxProbes, now: time.Now}
}

// Unique returns base, base1 … base<maxProbes>, whichever is free first, or
// base_<unix-millis> once every probe is taken.
func (n *Namer) Unique(ctx context.Context, base string) (string, error) {
	base = PascalName(base)
	for i := 0; i <= n.maxProbes; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		_, err := n.components.FindByName(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe name %s: %w", candidate, err)
		}
	}
	return fmt.Sprintf("%s_%d", base, n.now().UnixMilli()), nil
}

// saveAttempts bounds re-probing when a concurrent writer takes the probed name.
const saveAttempts = 3

// Save stores c under a unique name derived from c.Name. The component declared in the
// source is renamed to match, whatever it was called.
func (n *Namer) Save(ctx context.Context, c *domain.Component) error {
	proposed := PascalName(c.Name)
	original, code := c.Name, c.Code
	if declared, ok := validator.ComponentName(code); ok {
		original = declared
	}
	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		name, err := n.Unique(ctx, proposed)
		if err != nil {
			return err
		}
		c.Name = name
		c.Code = RenameComponent(code, original, name)
		err = n.components.Create(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateName) {
			return fmt.Errorf("save component %s: %w", name, err)
		}
		lastErr = err
	}
	return fmt.Errorf("save component %s: %w", proposed, lastErr)
}

// RenameComponent rewrites identifier occurrences of from and fromProps in code. Text
// inside import paths and longer identifiers is left alone.
func RenameComponent(code, from, to string) string {
	if from == "" || from == to {
		return code
	}
	re, err := regexp.Compile(`(^|[^\w$/'".@-])` + regexp.QuoteMeta(from) + `(Props)?\b`)
	if err != nil {
		return code
	}
	return re.ReplaceAllString(code, "${1}"+to+"${2}")
}
