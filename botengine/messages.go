package botengine

// Messages are the texts the pipeline itself sends to users.
type Messages struct {
	UnsupportedFormat                 string `mapstructure:"unsupported_format" json:"unsupported_format" env:"UNSUPPORTED_FORMAT"`
	NoAgent                           string `mapstructure:"no_agent" json:"no_agent" env:"NO_AGENT"`
	MessageHandlingInCore             string `mapstructure:"message_handling_in_core" json:"message_handling_in_core" env:"MESSAGE_HANDLING_IN_CORE"`
	HandlingBetweenCoreAndChatAdapter string `mapstructure:"handling_between_core_and_chat_adapter" json:"handling_between_core_and_chat_adapter" env:"HANDLING_BETWEEN_CORE_AND_CHAT_ADAPTER"`
	Welcome                           string `mapstructure:"welcome" json:"welcome" env:"WELCOME"`
}

func DefaultMessages() Messages {
	return Messages{
		UnsupportedFormat: "I was unable to process your message: Unsupported message type. " +
			"I can currently only process text messages, audio messages and the following attachments: images (.png or .jpg).",
		NoAgent:                           "I currently do not use an agent that allows me to understand natural language.",
		MessageHandlingInCore:             "A problem occured during the processing of your request. Please try again!",
		HandlingBetweenCoreAndChatAdapter: "That did not quite work. Something went wrong during processing your answer. Please try again!",
		Welcome:                           "Hello! Send me a message to get started.",
	}
}

// WithDefaults fills every empty text with its default.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	if m.UnsupportedFormat == "" {
		m.UnsupportedFormat = d.UnsupportedFormat
	}
	if m.NoAgent == "" {
		m.NoAgent = d.NoAgent
	}
	if m.MessageHandlingInCore == "" {
		m.MessageHandlingInCore = d.MessageHandlingInCore
	}
	if m.HandlingBetweenCoreAndChatAdapter == "" {
		m.HandlingBetweenCoreAndChatAdapter = d.HandlingBetweenCoreAndChatAdapter
	}
	if m.Welcome == "" {
		m.Welcome = d.Welcome
	}
	return m
}
