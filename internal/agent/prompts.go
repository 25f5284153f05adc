package agent

// connectionTestPrompt is the single user message sent by TestConnection.
const connectionTestPrompt = "Hello! Reply with a short greeting to confirm the connection works."
