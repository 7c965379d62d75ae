package silver

import (
	"math"
	"strings"
	"time"
)

// Форматы дат, принимаемые конвейером
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
}

// round2 округляет значение до двух знаков после запятой
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// computeVolume вычисляет предварительный объем одного места: собственное
// значение CBM, если оно задано и больше нуля, иначе произведение габаритов,
// переведенных из миллиметров в метры. Если ни CBM, ни габариты не приводятся
// к числам, возвращается NaN — маркер отсутствия
func computeVolume(ownCBM, lengthMM, widthMM, heightMM float64) float64 {
	if !math.IsNaN(ownCBM) && ownCBM > 0 {
		return ownCBM
	}

	if math.IsNaN(lengthMM) || math.IsNaN(widthMM) || math.IsNaN(heightMM) {
		return math.NaN()
	}

	return (lengthMM / 1000) * (widthMM / 1000) * (heightMM / 1000)
}

// resolveFinalVolume выбирает итоговый объем по трехъярусной цепочке:
// собственное значение, если оно больше нуля, иначе справочник габаритов,
// иначе справочник средних, иначе ноль. Ярусы проверяются строго по порядку.
// Отрицательные значения справочников пропускаются как испорченные,
// поэтому результат никогда не бывает меньше нуля
func resolveFinalVolume(own, approx, avg float64) float64 {
	if !math.IsNaN(own) && own > 0 {
		return own
	}
	if !math.IsNaN(approx) && approx >= 0 {
		return approx
	}
	if !math.IsNaN(avg) && avg >= 0 {
		return avg
	}
	return 0
}

// resolveFinalWeight выбирает итоговый вес по той же трехъярусной цепочке
// над (собственный вес, вес из справочника габаритов, средний вес)
func resolveFinalWeight(own, ref, avg float64) float64 {
	if !math.IsNaN(own) && own > 0 {
		return own
	}
	if !math.IsNaN(ref) && ref >= 0 {
		return ref
	}
	if !math.IsNaN(avg) && avg >= 0 {
		return avg
	}
	return 0
}

// parseDate разбирает текстовую дату в одном из принятых форматов
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "NaN" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// resolveDeliveryDate выбирает итоговую дату доставки: явная дата доставки,
// иначе дата производства плюс 5 дней, иначе текущая дата плюс 30 дней.
// Значение now фиксируется один раз на прогон, поэтому резерв третьего
// яруса стабилен для всего батча. Функция чистая: одинаковые входы дают
// одинаковый результат на любом этапе конвейера
func resolveDeliveryDate(delivery, production string, now time.Time) string {
	if t, ok := parseDate(delivery); ok {
		return t.Format("2006-01-02")
	}

	if t, ok := parseDate(production); ok {
		return t.AddDate(0, 0, 5).Format("2006-01-02")
	}

	return now.AddDate(0, 0, 30).Format("2006-01-02")
}
