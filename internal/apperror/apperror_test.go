package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	errCartNotFound := New(NotFound, "cart not found")

	t.Run("MatchesKind", func(t *testing.T) {
		assert.True(t, errors.Is(errCartNotFound, NotFound))
		assert.False(t, errors.Is(errCartNotFound, InvalidInput))
	})

	t.Run("MatchesSentinelThroughWrap", func(t *testing.T) {
		wrapped := fmt.Errorf("load cart: %w", errCartNotFound)
		assert.True(t, errors.Is(wrapped, errCartNotFound))
		assert.True(t, errors.Is(wrapped, NotFound))
	})

	t.Run("DifferentMessageSameKind", func(t *testing.T) {
		other := New(NotFound, "order not found")
		assert.False(t, errors.Is(errCartNotFound, other))
	})

	t.Run("UnwrapsCause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(ServerError, "failed to save cart", cause)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, "failed to save cart: connection reset", err.Error())
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, EmptyCart, KindOf(New(EmptyCart, "your cart is empty")))
	assert.Equal(t, PaymentFailed, KindOf(fmt.Errorf("x: %w", New(PaymentFailed, "payment failed"))))
	assert.Equal(t, ServerError, KindOf(errors.New("boom")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "product not in cart", MessageOf(New(NotFound, "product not in cart")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: relation does not exist")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		NotFound:      http.StatusNotFound,
		InvalidInput:  http.StatusBadRequest,
		EmptyCart:     http.StatusBadRequest,
		Unauthorized:  http.StatusUnauthorized,
		Forbidden:     http.StatusForbidden,
		PaymentFailed: http.StatusPaymentRequired,
		ProviderError: http.StatusBadGateway,
		ServerError:   http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), string(kind))
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, New(EmptyCart, "your cart is empty"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"kind":"EMPTY_CART","message":"your cart is empty"}}`, w.Body.String())
}
