package mapstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/story-map-service/internal/domain"
)

func TestViewport_Fit(t *testing.T) {
	paris := []domain.LatLon{{48.8566, 2.3522}}
	both := []domain.LatLon{{48.8566, 2.3522}, {51.5074, -0.1278}}

	tests := []struct {
		name   string
		calls  [][]domain.LatLon
		want   []bool
		refits int
	}{
		{
			name:   "first non-empty bounds refit",
			calls:  [][]domain.LatLon{paris},
			want:   []bool{true},
			refits: 1,
		},
		{
			name:   "same bounds twice refit once",
			calls:  [][]domain.LatLon{paris, paris},
			want:   []bool{true, false},
			refits: 1,
		},
		{
			name:   "changed bounds refit again",
			calls:  [][]domain.LatLon{paris, both, paris},
			want:   []bool{true, true, true},
			refits: 3,
		},
		{
			name:   "empty bounds never refit",
			calls:  [][]domain.LatLon{nil, {}},
			want:   []bool{false, false},
			refits: 0,
		},
		{
			name:   "empty bounds keep previous view",
			calls:  [][]domain.LatLon{paris, nil, paris},
			want:   []bool{true, false, false},
			refits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Viewport
			for i, bounds := range tt.calls {
				assert.Equal(t, tt.want[i], v.Fit(bounds), "call %d", i)
			}
			assert.Equal(t, tt.refits, v.State().Refits)
		})
	}
}

func TestViewport_StateIsCopy(t *testing.T) {
	var v Viewport
	bounds := []domain.LatLon{{1, 2}}
	v.Fit(bounds)
	bounds[0] = domain.LatLon{9, 9}

	st := v.State()
	assert.Equal(t, []domain.LatLon{{1, 2}}, st.Bounds)
	st.Bounds[0] = domain.LatLon{7, 7}
	assert.Equal(t, []domain.LatLon{{1, 2}}, v.State().Bounds)
}
