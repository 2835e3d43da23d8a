package app

import (
	"fmt"
	"strings"

	"vision-chat/internal/domain/entity"
)

const (
	promptFraming     = "You are an AI assistant analyzing an image."
	promptInstruction = "Please answer the following question from the user based on BOTH the visual image " +
		"and the provided detection data. Be concise and helpful."
	promptTextOnlyNote = "Note: the image itself could not be analyzed, so answer using only the detection " +
		"data below and say so if it is not enough."
	promptTextOnlyInstruction = "Please answer the following question from the user based on the provided " +
		"detection data. Be concise and helpful."
	noDetections = "No objects were detected."
)

// FormatDetections сериализует детекции в нумерованный список для промпта.
func FormatDetections(dets []entity.Detection) string {
	if len(dets) == 0 {
		return noDetections
	}
	var sb strings.Builder
	for i, d := range dets {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s (%s) box=[%d, %d, %d, %d]",
			i+1, d.ClassName, d.ConfidencePercent(), d.Box[0], d.Box[1], d.Box[2], d.Box[3])
	}
	return sb.String()
}

// BuildPrompt собирает промпт для мультимодальных уровней. Вопрос пользователя всегда последний.
func BuildPrompt(dets []entity.Detection, question string) string {
	return buildPrompt("", promptInstruction, dets, question)
}

// BuildTextOnlyPrompt собирает промпт для текстовой модели с пометкой, что изображение недоступно.
func BuildTextOnlyPrompt(dets []entity.Detection, question string) string {
	return buildPrompt(promptTextOnlyNote, promptTextOnlyInstruction, dets, question)
}

func buildPrompt(note, instruction string, dets []entity.Detection, question string) string {
	var sb strings.Builder
	sb.WriteString(promptFraming)
	sb.WriteString("\n\n")
	if note != "" {
		sb.WriteString(note)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Here is the structured object detection data (YOLO) for this image:\n")
	sb.WriteString(FormatDetections(dets))
	sb.WriteString("\n\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nUser Question: ")
	sb.WriteString(question)
	return sb.String()
}
