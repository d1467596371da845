package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"vision-node/internal/domain/port"
)

// ErrNotConnected — брокер недоступен, значение сохранено только локально.
var ErrNotConnected = errors.New("mqtt not connected")

const publishTimeout = 2 * time.Second

// MQTTOptions — параметры подключения к брокеру.
type MQTTOptions struct {
	Broker         string // host:port
	Prefix         string // корень таблиц
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTTBus — шина состояния робота поверх MQTT.
// Поле таблицы хранится в retained-топике <prefix>/<table>/<key> как текст.
type MQTTBus struct {
	opts     MQTTOptions
	clientID string
	client   mqtt.Client
	logger   *slog.Logger

	mu        sync.RWMutex
	values    map[string]string
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTBus создаёт шину. Подключение выполняет Connect.
func NewMQTTBus(opts MQTTOptions, logger *slog.Logger) *MQTTBus {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	return &MQTTBus{
		opts:     opts,
		clientID: "vision-node-" + uuid.NewString(),
		logger:   logger.With("component", "bus"),
		values:   make(map[string]string),
	}
}

// Connect подключается к брокеру и подписывается на все таблицы узла.
// Если брокер не ответил за ConnectTimeout, клиент продолжает попытки в фоне.
func (b *MQTTBus) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", b.opts.Broker))
	opts.SetClientID(b.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		b.setConnected(true)
		// подписка заново после каждого переподключения
		token := c.Subscribe(b.opts.Prefix+"/#", b.opts.QoS, b.handleMessage)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			b.logger.Warn("mqtt subscribe failed", "error", token.Error())
		}
		b.logger.Info("mqtt connection established",
			"broker", b.opts.Broker,
			"client_id", b.clientID)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		b.setConnected(false)
		b.logger.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", b.opts.Broker)
	}

	b.client = mqtt.NewClient(opts)

	b.logger.Info("connecting to mqtt broker", "broker", b.opts.Broker)

	token := b.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(b.opts.ConnectTimeout):
		b.logger.Warn("mqtt broker not reachable yet, continuing in background",
			"broker", b.opts.Broker)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

// Topic возвращает топик поля. Пустая таблица означает корень префикса.
func (b *MQTTBus) Topic(table, key string) string {
	if table == "" {
		return b.opts.Prefix + "/" + key
	}
	return b.opts.Prefix + "/" + table + "/" + key
}

// PutNumber публикует число.
func (b *MQTTBus) PutNumber(table, key string, value float64) error {
	return b.put(b.Topic(table, key), strconv.FormatFloat(value, 'g', -1, 64))
}

// PutBoolean публикует логическое значение.
func (b *MQTTBus) PutBoolean(table, key string, value bool) error {
	return b.put(b.Topic(table, key), strconv.FormatBool(value))
}

// GetBoolean читает последнее известное значение поля.
func (b *MQTTBus) GetBoolean(table, key string, def bool) bool {
	b.mu.RLock()
	raw, ok := b.values[b.Topic(table, key)]
	b.mu.RUnlock()
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func (b *MQTTBus) put(topic, payload string) error {
	// Своё значение видно сразу, как у таблиц NetworkTables.
	b.mu.Lock()
	b.values[topic] = payload
	connected := b.connected
	b.mu.Unlock()

	if !connected || b.client == nil {
		b.countError()
		return ErrNotConnected
	}

	token := b.client.Publish(topic, b.opts.QoS, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		b.countError()
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		b.countError()
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	b.mu.Lock()
	b.published++
	b.mu.Unlock()
	return nil
}

func (b *MQTTBus) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	b.mu.Lock()
	b.values[msg.Topic()] = string(msg.Payload())
	b.mu.Unlock()
	b.logger.Debug("bus value received", "topic", msg.Topic())
}

// Disconnect закрывает соединение с брокером.
func (b *MQTTBus) Disconnect() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
		b.logger.Info("mqtt disconnected", "stats", b.Stats())
	}
	b.setConnected(false)
}

// Stats — счётчики шины.
type Stats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

// Stats возвращает счётчики шины.
func (b *MQTTBus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{Connected: b.connected, Published: b.published, Errors: b.errors}
}

func (b *MQTTBus) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *MQTTBus) countError() {
	b.mu.Lock()
	b.errors++
	b.mu.Unlock()
}

// Проверка реализации интерфейса
var _ port.StateBus = (*MQTTBus)(nil)
