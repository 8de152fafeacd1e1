package forge

// apiKeyAuth is the credential shape shared by most hosted AI providers.
func apiKeyAuth(name string) *AuthDescriptor {
	return &AuthDescriptor{
		Name: name,
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"apiKey"},
			"properties": map[string]any{
				"apiKey": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
			},
		},
	}
}

// RegisterDefaultBlocks registers the built-in integration catalog. Called
// once at process start; new integrations append here or register their own
// descriptor before the API starts serving.
func RegisterDefaultBlocks(r *Registry) {
	r.Register(BlockDescriptor{
		ID:   "openai",
		Name: "OpenAI",
		Icon: "openai.svg",
		Auth: apiKeyAuth("OpenAI account"),
		Actions: []ActionDescriptor{
			{Name: "Create chat completion"},
			{Name: "Create speech"},
			{Name: "Create transcription"},
			{Name: "Ask assistant"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "anthropic",
		Name: "Anthropic",
		Icon: "anthropic.svg",
		Auth: apiKeyAuth("Anthropic account"),
		Actions: []ActionDescriptor{
			{Name: "Create Chat Message"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "mistral",
		Name: "Mistral",
		Icon: "mistral.svg",
		Auth: apiKeyAuth("Mistral account"),
		Actions: []ActionDescriptor{
			{Name: "Create chat completion"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "together-ai",
		Name: "Together AI",
		Icon: "together.svg",
		Auth: apiKeyAuth("Together account"),
		Actions: []ActionDescriptor{
			{Name: "Create chat completion"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "open-router",
		Name: "OpenRouter",
		Icon: "open-router.svg",
		Auth: apiKeyAuth("OpenRouter account"),
		Actions: []ActionDescriptor{
			{Name: "Create chat completion"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "elevenlabs",
		Name: "ElevenLabs",
		Icon: "elevenlabs.svg",
		Auth: apiKeyAuth("ElevenLabs account"),
		Actions: []ActionDescriptor{
			{Name: "Convert text to speech"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "dify-ai",
		Name: "Dify.AI",
		Icon: "dify.svg",
		Auth: &AuthDescriptor{
			Name: "Dify.AI account",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"apiEndpoint", "apiKey"},
				"properties": map[string]any{
					"apiEndpoint": map[string]any{"type": "string", "format": "uri"},
					"apiKey":      map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		Actions: []ActionDescriptor{
			{Name: "Create Chat Message"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "chat-node",
		Name: "ChatNode",
		Icon: "chat-node.svg",
		Auth: apiKeyAuth("ChatNode account"),
		Actions: []ActionDescriptor{
			{Name: "Send Message"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "cal-com",
		Name: "Cal.com",
		Icon: "cal-com.svg",
		Actions: []ActionDescriptor{
			{Name: "Book event"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "qr-code",
		Name: "QR code",
		Icon: "qr-code.svg",
		Actions: []ActionDescriptor{
			{Name: "Generate QR code"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "nocodb",
		Name: "NocoDB",
		Icon: "nocodb.svg",
		Auth: &AuthDescriptor{
			Name: "NocoDB account",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"baseURL", "apiToken"},
				"properties": map[string]any{
					"baseURL":  map[string]any{"type": "string", "format": "uri"},
					"apiToken": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		Actions: []ActionDescriptor{
			{Name: "Search records"},
			{Name: "Create record"},
			{Name: "Update record"},
		},
	})

	r.Register(BlockDescriptor{
		ID:   "assign-chat",
		Name: "AssignChat",
		Icon: "assign-chat.svg",
		Auth: apiKeyAuth("Chat platform account"),
		Actions: []ActionDescriptor{
			{Name: "Assign chat"},
		},
	})

	r.Register(BlockDescriptor{
		ID:      "close-chat",
		Name:    "CloseChat",
		Icon:    "close-chat.svg",
		Actions: []ActionDescriptor{},
	})
}
