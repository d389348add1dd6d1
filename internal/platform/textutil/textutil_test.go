package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already lower", in: "customer email", want: "customer email"},
		{name: "upper", in: "CUSTOMER EMAIL", want: "customer email"},
		{name: "mixed", in: "Their Credit Score", want: "their credit score"},
		{name: "non ascii", in: "ÉMAIL Ünïcode", want: "émail ünïcode"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Fold(tc.in))
		})
	}
}

func TestNormalizeStringMap(t *testing.T) {
	t.Parallel()

	got := NormalizeStringMap(map[string]string{
		" Email ": " CRM_DB ",
		"  ":      "ignored",
	})
	require.Equal(t, map[string]string{"Email": "CRM_DB"}, got)
	require.Nil(t, NormalizeStringMap(nil))
	require.Nil(t, NormalizeStringMap(map[string]string{" ": "x"}))
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	got := NormalizeList([]string{" Name", "name", "", "EMAIL "}, Fold)
	require.Equal(t, []string{"name", "email"}, got)

	require.Equal(t, []string{"A", "a"}, NormalizeList([]string{"A", "a", "A"}, nil))
}
