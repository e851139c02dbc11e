package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/profile"
	"github.com/codeclass/engine/internal/validate"
)

func TestValidRequestGetsDefaultTimeout(t *testing.T) {
	req := api.ExecRequest{
		Code:     "print(1)",
		Language: api.LangPython,
	}
	verr := validate.Request(&req, profile.Default(), 30)
	require.Nil(t, verr)
	require.Equal(t, api.DefaultTimeoutSeconds, req.TimeoutSeconds)
}

func TestEmptyCodeRejected(t *testing.T) {
	req := api.ExecRequest{Language: api.LangPython}
	verr := validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "code", verr.Field)
}

func TestOversizeCodeRejected(t *testing.T) {
	req := api.ExecRequest{
		Code:     strings.Repeat("a", api.MaxCodeLength+1),
		Language: api.LangPython,
	}
	verr := validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "code", verr.Field)
}

func TestBoundsCountCharactersNotBytes(t *testing.T) {
	// "日" is three bytes; at the character limit the request is valid
	// even though the byte count is triple
	req := api.ExecRequest{
		Code:     strings.Repeat("日", api.MaxCodeLength),
		Language: api.LangPython,
		Stdin:    strings.Repeat("日", api.MaxStdinLength),
	}
	verr := validate.Request(&req, profile.Default(), 30)
	require.Nil(t, verr)

	req.Code += "日"
	verr = validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "code", verr.Field)
}

func TestUnknownLanguageRejected(t *testing.T) {
	req := api.ExecRequest{Code: "x", Language: "RUST"}
	verr := validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "language", verr.Field)

	req = api.ExecRequest{Code: "x"}
	verr = validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "language", verr.Field)
}

func TestOversizeStdinRejected(t *testing.T) {
	req := api.ExecRequest{
		Code:     "x",
		Language: api.LangCpp,
		Stdin:    strings.Repeat("a", api.MaxStdinLength+1),
	}
	verr := validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "stdin", verr.Field)
}

func TestTimeoutBounds(t *testing.T) {
	req := api.ExecRequest{Code: "x", Language: api.LangJava, TimeoutSeconds: 31}
	verr := validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)
	require.Equal(t, "timeoutSeconds", verr.Field)

	req = api.ExecRequest{Code: "x", Language: api.LangJava, TimeoutSeconds: -1}
	verr = validate.Request(&req, profile.Default(), 30)
	require.NotNil(t, verr)

	req = api.ExecRequest{Code: "x", Language: api.LangJava, TimeoutSeconds: 30}
	verr = validate.Request(&req, profile.Default(), 30)
	require.Nil(t, verr)
}
