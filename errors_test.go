package iostream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFromErrno(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{unix.EINVAL, ErrInvalidArgs},
		{unix.ENOMEM, ErrNoMemory},
		{unix.ENOENT, ErrNoDevice},
		{unix.EACCES, ErrNoAccess},
		{unix.EBUSY, ErrNoAccess},
		{unix.EPIPE, ErrIO},
		{unix.ENXIO, ErrIO},
		{fmt.Errorf("open: %w", unix.ENOENT), ErrNoDevice},
		{errors.New("not an errno"), ErrIO},
	}
	for _, tt := range tests {
		require.ErrorIs(t, FromErrno(tt.in), tt.want, "input %v", tt.in)
	}
	require.NoError(t, FromErrno(nil))
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, StatusSuccess, StatusOf(nil))
	require.Equal(t, StatusUnsupported, StatusOf(ErrUnsupported))
	require.Equal(t, StatusInvalidArgs, StatusOf(ErrInvalidArgs))
	require.Equal(t, StatusNoMemory, StatusOf(ErrNoMemory))
	require.Equal(t, StatusNoDevice, StatusOf(ErrNoDevice))
	require.Equal(t, StatusNoAccess, StatusOf(ErrNoAccess))
	require.Equal(t, StatusIO, StatusOf(ErrIO))
	require.Equal(t, StatusTimeout, StatusOf(fmt.Errorf("read: %w", ErrTimeout)))
	require.Equal(t, StatusIO, StatusOf(errors.New("other")))

	require.Equal(t, "timeout", StatusTimeout.String())
	require.Equal(t, "unknown", Status(42).String())
}

func TestDirection(t *testing.T) {
	require.True(t, DirectionAll.Has(DirectionInput))
	require.True(t, DirectionAll.Has(DirectionOutput))
	require.False(t, DirectionInput.Has(DirectionOutput))
	require.False(t, DirectionOutput.Has(DirectionAll))
}

func TestFlowControlString(t *testing.T) {
	require.Equal(t, "none", FlowNone.String())
	require.Equal(t, "hardware", FlowHardware.String())
	require.Equal(t, "software", FlowSoftware.String())
	require.Equal(t, "unknown", FlowControl(9).String())
}
