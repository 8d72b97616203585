package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", stderrors.New("boom"), "UNKNOWN"},
		{"app error", InvalidInput("bad column"), CodeInvalidInput},
		{"fit error", FitFailed(4, stderrors.New("singular")), CodeFitFailed},
		{"numerical error", &NumericalError{Breaks: 3, Reason: "zero rss"}, CodeNumerical},
		{"wrapped fit error", Wrap(FitFailed(5, stderrors.New("x")), "selection failed"), CodeFitFailed},
		{"fmt wrapped numerical", fmt.Errorf("outer: %w", &NumericalError{Breaks: 2}), CodeNumerical},
		{"wrapped plain", Wrap(stderrors.New("io"), "read failed"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

func TestFitErrorUnwrap(t *testing.T) {
	cause := stderrors.New("too few points")
	err := Wrap(FitFailed(6, cause), "break-count search aborted")

	var fitErr *FitError
	if assert.True(t, stderrors.As(err, &fitErr)) {
		assert.Equal(t, 6, fitErr.Breaks)
	}
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsFitError(err))
	assert.False(t, IsNumericalError(err))
	assert.Contains(t, err.Error(), "6 breaks")
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, IsAppError(err))
}
