package damage

import "fmt"

// Risk уровень опасности повреждения
type Risk string

const (
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Class описывает один класс дефектов дорожного покрытия
type Class struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	Short       string `json:"short"`
	Name        string `json:"name"`
	Risk        Risk   `json:"risk"`
	Description string `json:"description"`
}

// Label возвращает строку вида "D40 - Вибоїна / яма"
func (c Class) Label() string {
	return fmt.Sprintf("%s - %s", c.Code, c.Name)
}

// classes индексирован по ID класса, который возвращает модель
var classes = [...]Class{
	{
		ID:          0,
		Code:        "D00",
		Short:       "Longitudinal Crack",
		Name:        "Поздовжня тріщина",
		Risk:        RiskMedium,
		Description: "Тріщини, що проходять вздовж дороги у напрямку руху. Часто пов’язані з колійністю та температурними напруженнями.",
	},
	{
		ID:          1,
		Code:        "D10",
		Short:       "Transverse Crack",
		Name:        "Поперечна тріщина",
		Risk:        RiskMedium,
		Description: "Тріщини, що йдуть поперек дороги. Зазвичай пов’язані з температурними змінами та швами покриття.",
	},
	{
		ID:          2,
		Code:        "D20",
		Short:       "Alligator Crack",
		Name:        "Сітчасті “крокодилячі” тріщини",
		Risk:        RiskHigh,
		Description: "Мережа дрібних тріщин, схожа на крокодилячу шкіру. Свідчить про структурне руйнування основи дорожнього покриття.",
	},
	{
		ID:          3,
		Code:        "D40",
		Short:       "Pothole",
		Name:        "Вибоїна / яма",
		Risk:        RiskHigh,
		Description: "Місцеве руйнування покриття з втратою матеріалу та утворенням глибокої ями. Небезпечно для транспорту.",
	},
}

// Lookup возвращает класс по ID. Второе значение false, если ID не определен.
func Lookup(id int) (Class, bool) {
	if id < 0 || id >= len(classes) {
		return Class{}, false
	}
	return classes[id], true
}

// All возвращает копию таблицы классов, упорядоченную по ID
func All() []Class {
	out := make([]Class, len(classes))
	copy(out, classes[:])
	return out
}
