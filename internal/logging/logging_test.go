package logging

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" INFO ", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("key", "KEY_ENTER").Msg("event mapped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "event mapped", line["message"])
	assert.Equal(t, "KEY_ENTER", line["key"])
	assert.Equal(t, "info", line["level"])
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	_, err := Setup(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestSetLevelWhileLogging(t *testing.T) {
	var buf bytes.Buffer
	_, err := Setup(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			log.Info().Int("i", i).Msg("tick")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			levels := []string{"debug", "info"}
			assert.NoError(t, SetLevel(levels[i%2]))
		}
	}()
	wg.Wait()

	require.NoError(t, SetLevel("warn"))
	buf.Reset()
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	require.NoError(t, SetLevel("debug"))
	log.Debug().Msg("visible again")
	assert.Contains(t, buf.String(), "visible again")
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	assert.Error(t, SetLevel("loud"))
}
