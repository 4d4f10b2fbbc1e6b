package dhttp_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/advdv/dhttp"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestErrorBasics(t *testing.T) {
	err1 := dhttp.BadRequestError("foo", "badFoo")
	require.Equal(t, http.StatusBadRequest, err1.Status())
	require.Equal(t, "foo", err1.Message())
	require.Equal(t, "badFoo", err1.Code())
	require.Equal(t, "Bad Request: foo", err1.Error())

	require.Equal(t, http.StatusBadRequest, dhttp.StatusOf(err1))
	require.Equal(t, "badFoo", dhttp.CodeOf(err1))

	require.Equal(t, 0, dhttp.StatusOf(errors.New("bar")))
	require.Equal(t, "", dhttp.CodeOf(errors.New("bar")))
	require.Equal(t, "Unknown: rab", dhttp.NewError(900, "rab", "").Error())
}

func TestErrorWrapping(t *testing.T) {
	inner := dhttp.NotFoundError("no such user", "userNotFound")
	wrapped := errors.Wrap(inner, "handler failed")

	require.Equal(t, http.StatusNotFound, dhttp.StatusOf(wrapped))
	require.Equal(t, "userNotFound", dhttp.CodeOf(wrapped))

	cause := errors.New("disk broke")
	err := dhttp.InternalServerError("storage failed", "").WithCause(cause)
	require.ErrorIs(t, err, cause)
}

func TestNormalize(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.Nil(t, dhttp.Normalize(nil, false))
	})

	t.Run("plain errors become 500", func(t *testing.T) {
		norm := dhttp.Normalize(errors.New("kaboom"), false)
		require.Equal(t, http.StatusInternalServerError, norm.Status)
		require.Equal(t, "kaboom", norm.Message)
		require.Empty(t, norm.Code)
		require.Empty(t, norm.Stack)
	})

	t.Run("structured errors keep their fields", func(t *testing.T) {
		norm := dhttp.Normalize(dhttp.NotFoundError("gone", "itemGone"), false)
		require.Equal(t, http.StatusNotFound, norm.Status)
		require.Equal(t, "gone", norm.Message)
		require.Equal(t, "itemGone", norm.Code)
	})

	t.Run("wrapped structured errors keep their fields", func(t *testing.T) {
		err := errors.Wrap(dhttp.NotFoundError("gone", "itemGone"), "outer")
		norm := dhttp.Normalize(err, false)
		require.Equal(t, http.StatusNotFound, norm.Status)
		require.Equal(t, "gone", norm.Message)
	})

	t.Run("stack is included on request", func(t *testing.T) {
		norm := dhttp.Normalize(dhttp.InternalServerError("kaboom", ""), true)
		require.NotEmpty(t, norm.Stack)
		assert.Contains(t, norm.Stack, "TestNormalize", "stack should name the constructing function")
	})
}

func TestErrorEnvelopeJSON(t *testing.T) {
	t.Run("full envelope", func(t *testing.T) {
		norm := dhttp.Normalize(dhttp.NotFoundError("gone", "itemGone"), false)
		buf, err := json.Marshal(map[string]any{"error": norm})
		require.NoError(t, err)

		require.Equal(t, int64(404), gjson.GetBytes(buf, "error.status").Int())
		require.Equal(t, "gone", gjson.GetBytes(buf, "error.message").String())
		require.Equal(t, "itemGone", gjson.GetBytes(buf, "error.code").String())
		require.False(t, gjson.GetBytes(buf, "error.stack").Exists())
	})

	t.Run("empty code and stack are omitted", func(t *testing.T) {
		norm := dhttp.Normalize(errors.New("kaboom"), false)
		buf, err := json.Marshal(norm)
		require.NoError(t, err)

		require.False(t, gjson.GetBytes(buf, "code").Exists())
		require.False(t, gjson.GetBytes(buf, "stack").Exists())
	})

	t.Run("extra fields are merged but never override", func(t *testing.T) {
		derr := dhttp.BadRequestError("nope", "").
			WithField("parameter", "cursor").
			WithField("status", 999)

		buf, err := json.Marshal(dhttp.Normalize(derr, false))
		require.NoError(t, err)

		require.Equal(t, "cursor", gjson.GetBytes(buf, "parameter").String())
		require.Equal(t, int64(400), gjson.GetBytes(buf, "status").Int(),
			"reserved keys must win over extra fields")
	})
}

func TestErrorStackFormatting(t *testing.T) {
	err := dhttp.InternalServerError("kaboom", "")
	rendered := fmt.Sprintf("%+v", err)
	assert.Contains(t, rendered, "kaboom")
	assert.Contains(t, rendered, "TestErrorStackFormatting")
}
