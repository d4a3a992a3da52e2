package main

import (
	"context"
	"testing"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannelsClient struct {
	states  []domain.ChannelState
	channel string
	enabled bool
}

func (f *fakeChannelsClient) ListChannels(context.Context) ([]domain.ChannelState, error) {
	return f.states, nil
}

func (f *fakeChannelsClient) SetChannel(_ context.Context, channel string, enabled bool) (domain.ChannelState, error) {
	f.channel = channel
	f.enabled = enabled
	return domain.ChannelState{Channel: channel, Enabled: enabled, Editable: true}, nil
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "on", want: true},
		{input: " ON ", want: true},
		{input: "enabled", want: true},
		{input: "off", want: false},
		{input: "0", want: false},
		{input: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSwitch(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelsSet(t *testing.T) {
	client := &fakeChannelsClient{}

	out, err := runCommand(t, NewChannelsCmd(client), "set", "telegram", "on")
	require.NoError(t, err)
	assert.Equal(t, "telegram", client.channel)
	assert.True(t, client.enabled)
	assert.Contains(t, out, "Channel telegram enabled")
}

func TestChannelsList(t *testing.T) {
	buf := swapWriter(t, &channelsOutputWriter)
	client := &fakeChannelsClient{states: []domain.ChannelState{{Channel: "sse", Label: "In-app", Enabled: true}}}

	_, err := runCommand(t, NewChannelsCmd(client), "list", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "In-app")

	out, err := runCommand(t, NewChannelsCmd(&fakeChannelsClient{}), "list", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "feed sync")
}
