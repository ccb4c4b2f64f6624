package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagebook/stagebook/internal/catalog"
	"github.com/stagebook/stagebook/internal/domain"
)

func TestForVariant(t *testing.T) {
	t.Run("known variants", func(t *testing.T) {
		for _, v := range catalog.Variants() {
			slots, ok := catalog.ForVariant(v)
			require.True(t, ok, "variant %s", v)
			require.Len(t, slots, 5)

			for i, s := range slots {
				assert.Equal(t, i+1, s.ID)
				assert.NotEmpty(t, s.Start)
				assert.NotEmpty(t, s.End)
			}
		}
	})

	t.Run("unknown variant", func(t *testing.T) {
		slots, ok := catalog.ForVariant(domain.Variant("imax"))
		assert.False(t, ok)
		assert.Nil(t, slots)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		a, _ := catalog.ForVariant(domain.VariantDeluxe)
		a[0].Start = "mutated"

		b, _ := catalog.ForVariant(domain.VariantDeluxe)
		assert.Equal(t, "10:00 AM", b[0].Start)
	})
}

func TestMinutesOfDay(t *testing.T) {
	tests := []struct {
		name  string
		clock string
		want  int
		errIs error
	}{
		{name: "morning", clock: "10:00 AM", want: 600},
		{name: "early afternoon", clock: "1:00 PM", want: 780},
		{name: "evening", clock: "7:00 PM", want: 1140},
		{name: "late", clock: "10:00 PM", want: 1320},
		{name: "noon stays twelve", clock: "12:00 PM", want: 720},
		{name: "half past noon", clock: "12:30 PM", want: 750},
		{name: "midnight wraps to zero", clock: "12:00 AM", want: 0},
		{name: "after midnight", clock: "12:30 AM", want: 30},
		{name: "lowercase meridiem", clock: "4:15 pm", want: 975},
		{name: "surrounding whitespace", clock: "  9:05 AM  ", want: 545},

		{name: "missing meridiem", clock: "10:00", errIs: catalog.ErrBadClock},
		{name: "24-hour hour", clock: "13:00 PM", errIs: catalog.ErrBadClock},
		{name: "zero hour", clock: "0:30 AM", errIs: catalog.ErrBadClock},
		{name: "bad minute", clock: "10:60 AM", errIs: catalog.ErrBadClock},
		{name: "bad meridiem", clock: "10:00 XM", errIs: catalog.ErrBadClock},
		{name: "garbage", clock: "soon", errIs: catalog.ErrBadClock},
		{name: "empty", clock: "", errIs: catalog.ErrBadClock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.MinutesOfDay(tt.clock)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
