package entity

// ChatTier уровень в цепочке запасных моделей
type ChatTier int

const (
	TierFast     ChatTier = iota + 1 // быстрая мультимодальная модель
	TierCapable                      // более сильная мультимодальная модель
	TierTextOnly                     // текстовая модель без изображения
)

func (t ChatTier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierCapable:
		return "capable"
	case TierTextOnly:
		return "text"
	default:
		return "unknown"
	}
}

// Multimodal сообщает, передаётся ли модели изображение на этом уровне.
func (t ChatTier) Multimodal() bool {
	return t == TierFast || t == TierCapable
}

// TierResult результат одной попытки генерации.
type TierResult struct {
	Tier  ChatTier
	Model string
	Text  string
	Err   error
}

// OK сообщает об успешной попытке.
func (r TierResult) OK() bool {
	return r.Err == nil
}
