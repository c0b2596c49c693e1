package display

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joshuarubin/go-sway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSway struct {
	commands []string
	failOn   string
	err      error
}

func (f *fakeSway) RunCommand(_ context.Context, command string) ([]sway.RunCommandReply, error) {
	f.commands = append(f.commands, command)
	if f.err != nil {
		return nil, f.err
	}
	if f.failOn != "" && strings.Contains(command, f.failOn) {
		return []sway.RunCommandReply{{Success: false, Error: "output not found"}}, nil
	}
	return []sway.RunCommandReply{{Success: true}}, nil
}

func TestProfileCommands(t *testing.T) {
	tests := []struct {
		profile Profile
		want    []string
	}{
		{TVOnly, []string{
			"output HDMI-A-1 pos 0 0 res 1920x1080@59.999Hz",
			"output HDMI-A-1 enable",
			"output DP-2 disable",
		}},
		{DesktopOnly, []string{
			"output DP-2 pos 1920 0 res 3440x1440@59.999Hz",
			"output DP-2 enable",
			"output HDMI-A-1 disable",
		}},
		{TVAndDesktop, []string{
			"output HDMI-A-1 pos 0 0 res 1920x1080@59.999Hz",
			"output HDMI-A-1 enable",
			"output DP-2 pos 1920 0 res 3440x1440@59.999Hz",
			"output DP-2 enable",
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			c := &fakeSway{}
			require.NoError(t, tt.profile.Apply(context.Background(), c))
			assert.Equal(t, tt.want, c.commands)
		})
	}
}

func TestApplyStopsAtFailedReply(t *testing.T) {
	c := &fakeSway{failOn: "HDMI-A-1 enable"}
	err := TVOnly.Apply(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output not found")
	assert.Contains(t, err.Error(), "output HDMI-A-1 enable")
	assert.Len(t, c.commands, 2)
}

func TestApplyWrapsTransportError(t *testing.T) {
	boom := errors.New("broken pipe")
	err := DesktopOnly.Apply(context.Background(), &fakeSway{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestApplyUnknownProfile(t *testing.T) {
	c := &fakeSway{}
	assert.Error(t, Profile("cinema").Apply(context.Background(), c))
	assert.Empty(t, c.commands)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile(" TV ")
	require.NoError(t, err)
	assert.Equal(t, TVOnly, p)

	p, err = ParseProfile("hybrid")
	require.NoError(t, err)
	assert.Equal(t, TVAndDesktop, p)

	_, err = ParseProfile("projector")
	assert.Error(t, err)
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "TV", TVOnly.Title())
	assert.Equal(t, "Desktop", DesktopOnly.Title())
	assert.Equal(t, "Hybrid", TVAndDesktop.Title())
}
