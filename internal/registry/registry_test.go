package registry

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/props"
)

func TestNew(t *testing.T) {
	r := New()

	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Count())
	assert.False(t, r.Frozen())
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("Box", Descriptor{
		IsCanvas: true,
		Defaults: props.Bag{"padding": 4},
		Rules:    AllowAll(),
	}))

	d, err := r.Resolve("Box")
	require.NoError(t, err)
	assert.Equal(t, "Box", d.Name)
	assert.Equal(t, "Box", d.DisplayName)
	assert.True(t, d.IsCanvas)

	// Resolve hands out copies.
	d.Defaults["padding"] = 99
	again, _ := r.Resolve("Box")
	assert.Equal(t, 4, again.Defaults["padding"])
}

func TestResolveUnknown(t *testing.T) {
	_, err := New().Resolve("Nope")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownType))
}

func TestRegisterRequiresName(t *testing.T) {
	assert.Error(t, New().Register("", Descriptor{}))
}

func TestFreeze(t *testing.T) {
	r := New()
	r.MustRegister("A", Descriptor{})
	r.Freeze()

	err := r.Register("B", Descriptor{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRegistryFrozen))
	assert.Equal(t, []string{"A"}, r.Names())

	assert.Panics(t, func() { r.MustRegister("C", Descriptor{}) })
}

func TestRulesAcceptsType(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		child string
		want  bool
	}{
		{"allow all", AllowAll(), "Text", true},
		{"no drop", Rules{CanMoveIn: true}, "Text", false},
		{"no move in", Rules{CanDrop: true}, "Text", false},
		{"restricted hit", Rules{CanDrop: true, CanMoveIn: true, Accepts: []string{"Text"}}, "Text", true},
		{"restricted miss", Rules{CanDrop: true, CanMoveIn: true, Accepts: []string{"Text"}}, "Image", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rules.AcceptsType(tt.child))
		})
	}
}

func TestDefaultPalette(t *testing.T) {
	r := Default()

	for _, name := range []string{"Container", "Section", "Grid", "Text", "Heading", "Button", "Image", "Card", "Hero", "Spacer", "Unknown"} {
		assert.True(t, r.Has(name), name)
	}

	container, err := r.Resolve("Container")
	require.NoError(t, err)
	assert.True(t, container.IsCanvas)
	assert.True(t, container.Rules.AcceptsType("Text"))

	text, err := r.Resolve("Text")
	require.NoError(t, err)
	assert.False(t, text.IsCanvas)
	assert.False(t, text.Rules.AcceptsType("Text"))

	unknown, err := r.Resolve("Unknown")
	require.NoError(t, err)
	assert.False(t, unknown.Rules.CanDrag)
	assert.True(t, unknown.Rules.CanDelete)

	for _, d := range r.Palette() {
		assert.NotEqual(t, "Unknown", d.Name)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	r := Default()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			p, err := r.ResolveProps(name, nil)
			require.NoError(t, err)
			assert.Equal(t, name, p.Type())
		})
	}
}

func TestResolveProps(t *testing.T) {
	r := Default()

	p, err := r.ResolveProps("Button", props.Bag{"text": "Buy", "fontSize": "18"})
	require.NoError(t, err)
	button := p.(*props.ButtonProps)
	assert.Equal(t, "Buy", button.Text)
	assert.Equal(t, props.Length("18px"), button.FontSize)
	assert.Equal(t, "#ffffff", button.ForegroundColor())

	_, err = r.ResolveProps("Button", props.Bag{"href": "javascript:alert(1)"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidProps))

	_, err = r.ResolveProps("Missing", nil)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownType))
}

func TestConcurrentResolve(t *testing.T) {
	r := Default()
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range r.Names() {
				_, err := r.Resolve(name)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
