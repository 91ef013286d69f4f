package generator

// fallbackTexts are served when the generator is unconfigured or a sample
// fails. Sample i falls back to fallbackTexts[i%len], so a batch in which
// every call failed is exactly this set.
var fallbackTexts = []string{
	"Something new has landed. We made it with care. It is ready for you today.\n" +
		"CTA: Learn more at the link in our bio.\n" +
		"#newarrivals #madewithcare #shoplocal",
	"Good things take time. This one was worth the wait. Come see what we have been working on.\n" +
		"CTA: Visit us this week.\n" +
		"#behindthescenes #smallbusiness #community",
	"Your day deserves a small upgrade. Ours starts here. Save time and enjoy more of what matters.\n" +
		"CTA: Shop now at the link in our bio.\n" +
		"#everydayessentials #treatyourself #shopsmall",
}

// FallbackTexts returns a copy of the fixed fallback set.
func FallbackTexts() []string {
	return append([]string(nil), fallbackTexts...)
}

func fallbackSample(index int, temp float64, err error) Sample {
	return Sample{
		Index:       index,
		Temperature: temp,
		Text:        fallbackTexts[index%len(fallbackTexts)],
		Fallback:    true,
		Err:         err,
	}
}
