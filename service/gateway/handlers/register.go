package handlers

import (
	"github.com/ideatoapp/chatgateway/service/gateway"
)

// RegisterAll wires every event handler into the dispatcher.
func RegisterAll(d *gateway.Dispatcher) {
	d.Register(NewMessageHandler())
	d.Register(NewTypingStartHandler())
	d.Register(NewTypingStopHandler())
	d.Register(NewJoinChatHandler())
	d.Register(NewLeaveChatHandler())
	d.Register(NewSubscribeProjectHandler())
	d.Register(NewUnsubscribeProjectHandler())
	d.Register(NewAgentStatusHandler())
	d.Register(NewProjectUpdateHandler())
	d.Register(NewPingHandler())
}
