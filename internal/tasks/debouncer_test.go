package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchDebouncer(t *testing.T) {
	setup := func() (*ManualScheduler, *SearchDebouncer, *[]string) {
		s := NewManualScheduler()
		var fired []string
		d := NewSearchDebouncer(s, 0, func(q string) { fired = append(fired, q) })
		return s, d, &fired
	}

	t.Run("Defaults", func(t *testing.T) {
		d := NewSearchDebouncer(nil, 0, func(string) {})
		assert.Equal(t, DefaultDebounce, d.Delay())
		assert.Equal(t, 300*time.Millisecond, d.Delay())
	})

	t.Run("FiresAfterQuietPeriod", func(t *testing.T) {
		s, d, fired := setup()
		d.Submit("pasta")

		s.Advance(299 * time.Millisecond)
		assert.Empty(t, *fired)
		assert.True(t, d.Pending())

		s.Advance(time.Millisecond)
		assert.Equal(t, []string{"pasta"}, *fired)
		assert.False(t, d.Pending())
	})

	t.Run("NewQueryCancelsPending", func(t *testing.T) {
		s, d, fired := setup()
		for _, q := range []string{"p", "pa", "pas"} {
			d.Submit(q)
			s.Advance(100 * time.Millisecond)
		}
		assert.Empty(t, *fired)

		s.Advance(200 * time.Millisecond)
		assert.Equal(t, []string{"pas"}, *fired, "only the last query reaches the backend")
		assert.Zero(t, s.Pending())
	})

	t.Run("Cancel", func(t *testing.T) {
		s, d, fired := setup()
		assert.False(t, d.Cancel())

		d.Submit("soup")
		assert.True(t, d.Cancel())

		s.Advance(time.Second)
		assert.Empty(t, *fired)
	})

	t.Run("EmptyQueryStillDebounced", func(t *testing.T) {
		s, d, fired := setup()
		d.Submit("")
		s.Advance(DefaultDebounce)
		assert.Equal(t, []string{""}, *fired)
	})
}
