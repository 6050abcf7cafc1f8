package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"photobooth-backend/internal/apperrors"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := apperrors.Wrap(apperrors.KindStorage, errors.New("bucket missing"), "failed to upload %s", "anime")
	wrapped := fmt.Errorf("style anime: %w", base)

	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(wrapped))
	assert.True(t, apperrors.Is(wrapped, apperrors.KindStorage))
	assert.Contains(t, wrapped.Error(), "bucket missing")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(errors.New("boom")))
	assert.False(t, apperrors.Is(nil, apperrors.KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(apperrors.KindValidation))
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(apperrors.KindAuth))
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(apperrors.KindNotFound))
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(apperrors.KindUpstream))
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatus(apperrors.KindTimeout))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(apperrors.KindStorage))
}
