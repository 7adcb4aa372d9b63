package llm

// price is USD per 1K tokens.
type price struct{ input, output float64 }

// Models missing here (including everything served by Ollama) cost nothing.
var prices = map[string]price{
	"gpt-4":                    {0.03, 0.06},
	"gpt-4-turbo":              {0.01, 0.03},
	"gpt-4o":                   {0.005, 0.015},
	"gpt-4o-mini":              {0.00015, 0.0006},
	"gpt-3.5-turbo":            {0.0005, 0.0015},
	"claude-sonnet-4-20250514": {0.003, 0.015},
	"claude-opus-4-20250514":   {0.015, 0.075},
	"claude-3-5-haiku-latest":  {0.0008, 0.004},
}

func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := prices[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*p.input + float64(outputTokens)/1000*p.output
}
