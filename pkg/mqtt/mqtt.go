package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/mikesmitty/tickavg/pkg/backtest"
	"github.com/mikesmitty/tickavg/pkg/market"
)

type Client struct {
	client      paho.Client
	clientID    string
	prefix      string
	topicPrefix string
	qos         byte
	retained    bool
	sampleRate  int
	publishing  atomic.Bool
	hassSensors map[string]HassSensor
	mu          sync.Mutex
}

func NewClient(broker *url.URL, prefix string, sampleRate int) *Client {
	hostname, _ := os.Hostname()
	clientID := strings.Split(hostname, ".")[0]
	if clientID == "" {
		clientID = uuid.NewString()
	}

	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID)
	pc := paho.NewClient(&paho.ClientOptions{
		Servers:        []*url.URL{broker},
		ClientID:       clientID,
		ConnectRetry:   true,
		ConnectTimeout: 30 * time.Second,
	})
	return newClient(pc, clientID, prefix, sampleRate)
}

func newClient(pc paho.Client, clientID, prefix string, sampleRate int) *Client {
	c := &Client{
		client:      pc,
		clientID:    clientID,
		prefix:      prefix,
		topicPrefix: prefix + "/" + clientID,
		qos:         1,
		sampleRate:  sampleRate,
		hassSensors: make(map[string]HassSensor),
	}
	c.publishing.Store(true)
	return c
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error())
		return token.Error()
	}
	return nil
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if token := c.client.Subscribe(topic, c.qos, handler); token.Wait() && token.Error() != nil {
		slog.Error("mqtt subscription failed", "topic", topic, "error", token.Error())
		return token.Error()
	}
	return nil
}

// TickTopic is the wildcard topic ticks are read from. The last level names
// the symbol.
func (c *Client) TickTopic() string {
	return c.prefix + "/ticks/+"
}

// ParseTick reads a tick from a message on <prefix>/ticks/<symbol> whose
// payload is a decimal price.
func ParseTick(topic string, payload []byte, now time.Time) (market.Tick, error) {
	symbol := topic[strings.LastIndex(topic, "/")+1:]
	if symbol == "" {
		return market.Tick{}, fmt.Errorf("no symbol in topic %q", topic)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("parsing price for %s: %w", symbol, err)
	}
	return market.Tick{Time: now, Symbol: symbol, Price: price}, nil
}

// TickSource subscribes to TickTopic and delivers ticks in arrival order. The
// channel is closed after ctx is done.
func (c *Client) TickSource(ctx context.Context) (<-chan market.Tick, error) {
	out := make(chan market.Tick, 64)
	var mu sync.Mutex
	closed := false

	topic := c.TickTopic()
	err := c.Subscribe(topic, func(_ paho.Client, msg paho.Message) {
		tick, err := ParseTick(msg.Topic(), msg.Payload(), time.Now())
		if err != nil {
			slog.Warn("dropping mqtt tick", "topic", msg.Topic(), "error", err, "module", "mqtt")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- tick:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, err
	}
	slog.Info("subscribed to ticks", "topic", topic, "module", "mqtt")

	go func() {
		<-ctx.Done()
		if token := c.client.Unsubscribe(topic); token.WaitTimeout(5*time.Second) && token.Error() != nil {
			slog.Error("mqtt unsubscribe failed", "topic", topic, "error", token.Error())
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out, nil
}

// GetPublisher publishes every sampleRate-th average per symbol and every
// order outcome. It returns once both inputs are closed.
func (c *Client) GetPublisher(averages <-chan market.Average, fills <-chan backtest.Fill) func() error {
	avgSensors := make(map[string]string)
	signalSensors := make(map[string]string)
	samples := make(map[string]*Sample)

	sensor := func(ids map[string]string, name string, sensorType HassSensorType) string {
		id, ok := ids[name]
		if !ok {
			id = c.RegisterHassSensor(c.NewHassSensor(name, sensorType))
			c.HassAnnounceSensor(c.hassSensor(id))
			ids[name] = id
		}
		return id
	}

	return func() error {
		for averages != nil || fills != nil {
			select {
			case avg, ok := <-averages:
				if !ok {
					averages = nil
					continue
				}
				sample, ok := samples[avg.Symbol]
				if !ok {
					sample = NewSample(c.sampleRate)
					samples[avg.Symbol] = sample
				}
				if !sample.Ready() || !c.publishing.Load() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "average", "symbol", avg.Symbol, "value", avg.Value)
				id := sensor(avgSensors, avg.Symbol+" Moving Average", HassSensorPrice)
				c.publishState(id, strconv.FormatFloat(avg.Value, 'f', 4, 64))
			case fill, ok := <-fills:
				if !ok {
					fills = nil
					continue
				}
				if !c.publishing.Load() {
					continue
				}
				state := fill.Signal.Side.String()
				if fill.Status != backtest.Filled {
					state += " " + fill.Status.String()
				}
				slog.Debug("mqtt publishing", "field", "signal", "symbol", fill.Signal.Symbol, "value", state)
				id := sensor(signalSensors, fill.Signal.Symbol+" Signal", HassSensorGeneric)
				c.publishState(id, state)
			}
		}
		slog.Info("mqtt publisher stopped")
		return nil
	}
}

func (c *Client) publishState(id, state string) {
	if err := c.HassPublishSensor(id, state); err != nil {
		slog.Error("mqtt sensor publish failed", "sensor", id, "error", err, "module", "mqtt")
	}
}

func (c *Client) Publishing() bool {
	return c.publishing.Load()
}

func (c *Client) SetPublishing(enabled bool) {
	slog.Info("mqtt publishing toggled", "enabled", enabled)
	c.publishing.Store(enabled)
}

func (c *Client) Publish(topic string, msg string) {
	t := c.client.Publish(topic, c.qos, c.retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "topic", topic, "error", t.Error())
		}
	}()
}
