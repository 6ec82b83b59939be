package capability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type subject struct {
	id   uuid.UUID
	name string
}

func (s subject) ID() uuid.UUID { return s.id }
func (s subject) Name() string  { return s.name }

func TestStaticProvider_Capabilities(t *testing.T) {
	p := NewStaticProvider("chatmanager", []string{"chatmanager.format.bold"}, map[string][]string{
		"Steve": {"chatmanager.color.basic", "color.advanced"},
	})
	ctx := context.Background()

	steve := p.Capabilities(ctx, subject{id: uuid.New(), name: "steve"})
	assert.True(t, steve.Has(FormatBold))
	assert.True(t, steve.Has(ColorBasic))
	assert.True(t, steve.Has(ColorAdvanced))
	assert.False(t, steve.Has(ColorAll))

	alex := p.Capabilities(ctx, subject{id: uuid.New(), name: "Alex"})
	assert.Equal(t, []Capability{FormatBold}, alex.List())

	assert.Empty(t, p.Capabilities(ctx, nil).List())
}

func TestStaticProvider_Replace(t *testing.T) {
	p := NewStaticProvider("chatmanager", nil, nil)
	s := subject{id: uuid.New(), name: "Steve"}
	assert.False(t, p.Capabilities(context.Background(), s).Has(Reload))

	p.Replace(nil, map[string][]string{"steve": {"chatmanager.reload"}})
	assert.True(t, p.Capabilities(context.Background(), s).Has(Reload))
}

func TestStaticDecorator_Meta(t *testing.T) {
	d := NewStaticDecorator(map[string]Meta{"Steve": {Prefix: "<red>[Admin] ", UsernameColor: "<gold>"}})
	meta := d.Meta(context.Background(), subject{name: "STEVE"})
	assert.Equal(t, "<red>[Admin] ", meta.Prefix)
	assert.Equal(t, "", meta.Suffix)
	assert.Equal(t, Meta{}, d.Meta(context.Background(), subject{name: "alex"}))
}

func TestNoop(t *testing.T) {
	assert.Empty(t, NoopProvider{}.Capabilities(context.Background(), subject{}).List())
	assert.Equal(t, Meta{}, NoopDecorator{}.Meta(context.Background(), subject{}))
}
