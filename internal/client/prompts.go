package client

import (
	"fmt"

	"github.com/echobrief/api/internal/model"
)

func systemPrompt(variant model.SummaryVariant) string {
	switch variant {
	case model.VariantTakeaway:
		return "You are an expert podcast summarizer. Extract the most valuable, actionable takeaways from episodes as a short numbered list with a focused title and one or two sentences of context. Use markdown."
	case model.VariantNarrative:
		return "You are an expert podcast summarizer. Retell the episode as a flowing narrative summary in a few short paragraphs, preserving the show's tone. Use markdown."
	default:
		return "You are an expert podcast summarizer. Condense the episode into concise bullet points grouped under short headings. Use markdown."
	}
}

func userPrompt(variant model.SummaryVariant, transcript string, meta model.EpisodeMetadata) string {
	task := "Create a bullet-point summary of this episode."
	switch variant {
	case model.VariantTakeaway:
		task = "Extract 3-7 key takeaways from this episode."
	case model.VariantNarrative:
		task = "Write a narrative summary of this episode."
	}

	return fmt.Sprintf(`%s

TRANSCRIPT:
%s

CONTEXT:
- Episode: %s
- Show: %s
- Show Description: %s`,
		task, transcript, meta.EpisodeTitle, meta.ShowTitle, meta.ShowSummary)
}
