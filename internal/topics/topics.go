// Package topics defines the hub's fixed MQTT topic namespace: the system
// topics and their announced defaults, the subscription set, and the
// downstream peers that receive a location at startup.
package topics

import "strings"

// DefaultRoot is the first level of every topic.
const DefaultRoot = "diy"

// Payload values with meaning on the bus.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// System topic names (second level is "system").
const (
	Calibrate = "calibrate"
	Demo      = "demo"
	Fire      = "fire"
	Panic     = "panic"
	Security  = "security"
	Silent    = "silent"
	Who       = "who"
	Test      = "test"
)

// SystemDefault pairs a system topic with the value announced on connect.
type SystemDefault struct {
	Name    string
	Payload string
}

// SystemDefaults is the canonical state announced after every connect, in order.
var SystemDefaults = []SystemDefault{
	{Calibrate, PayloadOff},
	{Demo, PayloadOn},
	{Fire, PayloadOff},
	{Panic, PayloadOff},
	{Security, PayloadOff},
	{Silent, PayloadOff},
	{Who, PayloadOff},
	{Test, PayloadOff},
}

// subscribedSystem are the system topics the hub acts on.
var subscribedSystem = []string{Demo, Fire, Panic, Silent, Who}

// telemetry are the per-device leaves covered by wildcard subscriptions.
var telemetry = []string{"os", "pi", "ip", "cpu", "cpucelsius", "disk"}

// SubscriptionQoS is used for every subscription.
const SubscriptionQoS byte = 1

// AnnounceQoS is used for the retained connect-time announcement.
const AnnounceQoS byte = 0

// Namespace builds topics under a root.
type Namespace struct {
	Root string
}

// New returns a Namespace rooted at root, or DefaultRoot when root is empty.
func New(root string) Namespace {
	root = strings.Trim(root, "/")
	if root == "" {
		root = DefaultRoot
	}
	return Namespace{Root: root}
}

// System returns the topic for a system name, e.g. "diy/system/fire".
func (n Namespace) System(name string) string {
	return n.Root + "/system/" + name
}

// Setup returns the setup topic for a peer, e.g. "diy/choke/setup".
func (n Namespace) Setup(peer string) string {
	return n.Root + "/" + peer + "/setup"
}

// Subscriptions returns every topic filter the hub subscribes to:
// the acted-on system topics, then the telemetry wildcards.
func (n Namespace) Subscriptions() []string {
	subs := make([]string, 0, len(subscribedSystem)+len(telemetry))
	for _, name := range subscribedSystem {
		subs = append(subs, n.System(name))
	}
	for _, leaf := range telemetry {
		subs = append(subs, n.Root+"/+/"+leaf)
	}
	return subs
}

// SystemName returns the system name for topic and whether topic is a
// system topic in this namespace.
func (n Namespace) SystemName(topic string) (string, bool) {
	prefix := n.Root + "/system/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	name := topic[len(prefix):]
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
