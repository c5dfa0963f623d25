package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
)

var (
	perfectScoreTips = []string{"Great job!", "Keep practicing!"}
	fallbackTips     = []string{"Review your mistakes carefully.", "Focus on weak areas."}
)

const maxTips = 2

type RemediationAdvisor struct {
	llm llm.Provider
}

func NewRemediationAdvisor(provider llm.Provider) *RemediationAdvisor {
	return &RemediationAdvisor{llm: provider}
}

// Advise returns up to two improvement tips for the given mistakes. It never
// fails: any problem with the model call yields the fallback tips.
func (a *RemediationAdvisor) Advise(ctx context.Context, mistakes []models.Mistake) []string {
	if len(mistakes) == 0 {
		return cloneTips(perfectScoreTips)
	}

	tips, err := a.requestTips(ctx, mistakes)
	if err != nil {
		log.Printf("remediation advisor: using fallback tips: %v", err)
		return cloneTips(fallbackTips)
	}
	return tips
}

func (a *RemediationAdvisor) requestTips(ctx context.Context, mistakes []models.Mistake) ([]string, error) {
	mistakesJSON, err := json.Marshal(mistakes)
	if err != nil {
		return nil, &AdviceError{Err: err}
	}

	prompt := fmt.Sprintf(`The student made the following mistakes: %s.
Suggest 2 short improvement tips for them.
Return only a valid JSON array of strings, nothing else.`, mistakesJSON)

	resp, err := a.llm.Complete(ctx, llm.Request{Prompt: prompt, Temperature: 0.5})
	if err != nil {
		return nil, &AdviceError{Err: err}
	}

	var raw []string
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Text)), &raw); err != nil {
		return nil, &AdviceError{Err: fmt.Errorf("unparseable tips: %w", err)}
	}

	tips := make([]string, 0, maxTips)
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tips = append(tips, t)
		}
		if len(tips) == maxTips {
			break
		}
	}
	if len(tips) == 0 {
		return nil, &AdviceError{Err: fmt.Errorf("no tips in reply")}
	}
	return tips, nil
}

func cloneTips(tips []string) []string {
	return append([]string(nil), tips...)
}
