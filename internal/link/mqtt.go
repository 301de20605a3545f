// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/config"
)

// ChannelsMessage is the JSON payload published on the channels topic.
type ChannelsMessage struct {
	Profile  int      `json:"profile"`
	Channels []uint16 `json:"channels"`
	Time     int64    `json:"time_ms"`
}

// SoundMessage is the JSON payload published on the sound topic.
type SoundMessage struct {
	Path string `json:"path"`
}

// FaultMessage is the JSON payload published on the faults topic.
type FaultMessage struct {
	Message string `json:"message"`
}

// MQTT publishes vectors, sound requests and faults, and receives profile
// selections.
type MQTT struct {
	client mqtt.Client
	topics config.MQTTConfig
	now    func() time.Time
}

// ConnectMQTT connects to cfg.Broker using clientID.
func ConnectMQTT(cfg config.MQTTConfig, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	log.Printf("link: connected to MQTT broker at %s as %s", cfg.Broker, clientID)
	return &MQTT{client: client, topics: cfg, now: time.Now}, nil
}

func channelsPayload(v channels.Vector, now time.Time) ([]byte, error) {
	return json.Marshal(ChannelsMessage{
		Profile:  v.Profile(),
		Channels: v.Slice(),
		Time:     now.UnixMilli(),
	})
}

// PublishChannels publishes v without retaining it.
func (m *MQTT) PublishChannels(v channels.Vector) error {
	payload, err := channelsPayload(v, m.now())
	if err != nil {
		return err
	}
	return m.publish(m.topics.TopicChannels, false, payload)
}

// Play forwards a sound request to whatever plays audio on the network.
func (m *MQTT) Play(path string) {
	payload, err := json.Marshal(SoundMessage{Path: path})
	if err != nil {
		log.Printf("link: sound marshal error: %v", err)
		return
	}
	if err := m.publish(m.topics.TopicSound, false, payload); err != nil {
		log.Printf("link: sound publish error: %v", err)
	}
}

// PublishFault publishes a diagnostic. Faults are retained so late
// subscribers see the latest one.
func (m *MQTT) PublishFault(msg string) {
	payload, err := json.Marshal(FaultMessage{Message: msg})
	if err != nil {
		log.Printf("link: fault marshal error: %v", err)
		return
	}
	if err := m.publish(m.topics.TopicFaults, true, payload); err != nil {
		log.Printf("link: fault publish error: %v", err)
	}
}

func (m *MQTT) publish(topic string, retained bool, payload []byte) error {
	token := m.client.Publish(topic, 0, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, token.Error())
	}
	return nil
}

// SubscribeProfileSelect calls fn with the index carried by every message on
// the profile select topic. The payload is a decimal index.
func (m *MQTT) SubscribeProfileSelect(fn func(index int)) error {
	return m.subscribe(m.topics.TopicProfileSelect, func(payload []byte) {
		idx, err := parseProfileIndex(payload)
		if err != nil {
			log.Printf("link: %v", err)
			return
		}
		fn(idx)
	})
}

// SubscribeChannels calls fn with every vector published on the channels
// topic.
func (m *MQTT) SubscribeChannels(fn func(ChannelsMessage)) error {
	return m.subscribe(m.topics.TopicChannels, func(payload []byte) {
		var msg ChannelsMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("link: channels unmarshal error: %v", err)
			return
		}
		fn(msg)
	})
}

// SubscribeSound calls fn with every requested sound path.
func (m *MQTT) SubscribeSound(fn func(SoundMessage)) error {
	return m.subscribe(m.topics.TopicSound, func(payload []byte) {
		var msg SoundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("link: sound unmarshal error: %v", err)
			return
		}
		fn(msg)
	})
}

// SubscribeFaults calls fn with every published fault.
func (m *MQTT) SubscribeFaults(fn func(FaultMessage)) error {
	return m.subscribe(m.topics.TopicFaults, func(payload []byte) {
		var msg FaultMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("link: fault unmarshal error: %v", err)
			return
		}
		fn(msg)
	})
}

func (m *MQTT) subscribe(topic string, fn func(payload []byte)) error {
	token := m.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, token.Error())
	}
	log.Printf("link: subscribed to %s", topic)
	return nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

func parseProfileIndex(payload []byte) (int, error) {
	s := strings.TrimSpace(string(payload))
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid profile index %q", s)
	}
	return idx, nil
}
