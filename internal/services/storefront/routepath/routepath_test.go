package routepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilders(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/products/12", Product(12))
	assert.Equal(t, "/orders/3", Order(3))
	assert.Equal(t, "/orders/3/cancel", OrderCancel(3))
}

func TestLoginWithNext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		next string
		want string
	}{
		{next: "/checkout", want: "/login?next=%2Fcheckout"},
		{next: "/orders/3?x=1", want: "/login?next=%2Forders%2F3%3Fx%3D1"},
		{next: "", want: "/login"},
		{next: "/login", want: "/login"},
		{next: "//evil.example", want: "/login"},
		{next: "https://evil.example/", want: "/login"},
		{next: "/\\evil.example", want: "/login"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LoginWithNext(tc.next), tc.next)
	}
}
