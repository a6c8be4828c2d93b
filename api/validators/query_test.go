package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		want    int
		wantErr bool
	}{
		{name: "absent uses default", url: "/orders", want: 20},
		{name: "in range", url: "/orders?limit=50", want: 50},
		{name: "not numeric", url: "/orders?limit=abc", wantErr: true},
		{name: "above max", url: "/orders?limit=101", wantErr: true},
		{name: "below min", url: "/orders?limit=0", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQueryInt(httptest.NewRequest("GET", tc.url, nil), "limit", 20, 1, 100)
			if tc.wantErr {
				require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	got, err := ParseQueryBool(httptest.NewRequest("GET", "/admin/reviews?pending=true", nil), "pending", false)
	require.NoError(t, err)
	require.True(t, got)

	got, err = ParseQueryBool(httptest.NewRequest("GET", "/admin/reviews", nil), "pending", true)
	require.NoError(t, err)
	require.True(t, got)

	_, err = ParseQueryBool(httptest.NewRequest("GET", "/admin/reviews?pending=maybe", nil), "pending", false)
	require.Error(t, err)
}
