package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/raainshe/homepanel/internal/logging"
)

type fakeNotifier struct {
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

func TestMultiTriesEveryNotifier(t *testing.T) {
	a := &fakeNotifier{err: errors.New("discord down")}
	b := &fakeNotifier{}
	c := &fakeNotifier{err: errors.New("broker down")}

	err := Multi{a, b, c}.Notify(context.Background(), "⚠️ Alert: MEM 95%")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	for _, n := range []*fakeNotifier{a, b, c} {
		assert.Equal(t, []string{"⚠️ Alert: MEM 95%"}, n.texts)
	}

	assert.NoError(t, Multi{b}.Notify(context.Background(), "ok"))
	assert.NoError(t, Multi(nil).Notify(context.Background(), "nobody"))
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLog(logging.NewDiscard()).Notify(context.Background(), "hello"))
}

type fakeMessenger struct {
	channelErr error
	sendErr    error
	recipient  string
	channelID  string
	content    string
}

func (f *fakeMessenger) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.recipient = recipientID
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeMessenger) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelID = channelID
	f.content = content
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &discordgo.Message{ID: "1", Content: content}, nil
}

func TestDiscordNotifier(t *testing.T) {
	m := &fakeMessenger{}
	require.NoError(t, NewDiscord(m, "42").Notify(context.Background(), "⚠️ Alert: TEMP 75.0C"))
	assert.Equal(t, "42", m.recipient)
	assert.Equal(t, "dm-42", m.channelID)
	assert.Equal(t, "⚠️ Alert: TEMP 75.0C", m.content)
}

func TestDiscordNotifierErrors(t *testing.T) {
	assert.Error(t, NewDiscord(&fakeMessenger{}, "").Notify(context.Background(), "x"))

	err := NewDiscord(&fakeMessenger{channelErr: errors.New("403")}, "42").Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "DM channel")

	err = NewDiscord(&fakeMessenger{sendErr: errors.New("rate limited")}, "42").Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "rate limited")
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakePublisher struct {
	token    mqtt.Token
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.topic, p.qos, p.retained = topic, qos, retained
	p.payload = payload.([]byte)
	return p.token
}

func TestMQTTNotifier(t *testing.T) {
	p := &fakePublisher{token: newFakeToken(nil, true)}
	n := NewMQTT(p, "homepanel/alerts")
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, n.Notify(context.Background(), "⚠️ Alert: MEM 95%"))
	assert.Equal(t, "homepanel/alerts", p.topic)
	assert.Equal(t, byte(1), p.qos)
	assert.False(t, p.retained)

	var msg Message
	require.NoError(t, json.Unmarshal(p.payload, &msg))
	assert.Equal(t, "⚠️ Alert: MEM 95%", msg.Text)
	assert.Equal(t, 2026, msg.At.Year())
}

func TestMQTTNotifierErrors(t *testing.T) {
	p := &fakePublisher{token: newFakeToken(errors.New("not connected"), true)}
	assert.ErrorContains(t, NewMQTT(p, "t").Notify(context.Background(), "x"), "not connected")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = &fakePublisher{token: newFakeToken(nil, false)}
	assert.ErrorIs(t, NewMQTT(p, "t").Notify(ctx, "x"), context.Canceled)
}
