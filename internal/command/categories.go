package command

const (
	categoryInformation = "🕯️ Information"
	categoryChat        = "💬 Chat"
	categoryMemory      = "📜 Memory"
	categorySettings    = "⚙️ Settings"
)

var categoryWeights = map[string]int{
	categoryInformation: 0,
	categoryChat:        10,
	categoryMemory:      20,
	categorySettings:    50,
}

func categoryWeight(name string) int {
	if w, ok := categoryWeights[name]; ok {
		return w
	}
	return 100
}
