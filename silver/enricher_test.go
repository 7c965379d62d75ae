package silver

import (
	"math"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/LilVoxy/cargo_pipeline/reference"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// newTestRefs собирает справочники той же формы, что и reference.Loader
func newTestRefs() *reference.Tables {
	return &reference.Tables{
		Dimensions: dataframe.New(
			series.New([]string{"ABC"}, series.String, "Sender"),
			series.New([]string{"X1"}, series.String, "Model"),
			series.New([]float64{1.5}, series.Float, "Approx_CBM"),
			series.New([]float64{12}, series.Float, "Weight_kg"),
		),
		Averages: dataframe.New(
			series.New([]string{"X1"}, series.String, "Model"),
			series.New([]float64{0.8}, series.Float, "Avg_CBM"),
			series.New([]float64{7.5}, series.Float, "Avg_Weight"),
		),
		Ports: dataframe.New(
			series.New([]string{"A", "B"}, series.String, "Port"),
			series.New([]string{"Asia", "Europe"}, series.String, "Continent"),
		),
	}
}

var enrichHeader = []string{
	"Sender", "Model", "Units", "CBM", "Length", "Width", "Height",
	"Weight", "DeliveryDate", "ProductionDate",
}

func enrichFrame(t *testing.T, rows ...[]string) dataframe.DataFrame {
	t.Helper()

	records := [][]string{enrichHeader}
	records = append(records, rows...)

	df, err := Frame(records)
	if err != nil {
		t.Fatalf("не удалось построить фрейм: %v", err)
	}
	return df
}

func floatCol(t *testing.T, df dataframe.DataFrame, name string) []float64 {
	t.Helper()

	col := df.Col(name)
	if col.Err != nil {
		t.Fatalf("колонка %s: %v", name, col.Err)
	}
	return col.Float()
}

func TestEnrichResolvesVolumeAndWeight(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	enricher := NewEnricher(newTestRefs(), now, utils.NewDiscardLogger())

	df := enrichFrame(t,
		// Собственный CBM имеет приоритет
		[]string{"ABC", "X1", "10", "2.5", "", "", "", "", "", ""},
		// CBM из габаритов в миллиметрах
		[]string{"ABC", "X1", "4", "", "2000", "1000", "1000", "", "", ""},
		// Ни данных строки, ни справочников: терминальный ноль
		[]string{"QQQ", "Z9", "1", "", "", "", "", "", "", ""},
	)

	out, err := enricher.Enrich(df)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Левые соединения сохраняют число строк батча
	if out.Nrow() != 3 {
		t.Fatalf("ожидалось 3 строки, получено %d", out.Nrow())
	}

	cbm := floatCol(t, out, "CBM")
	wantCBM := []float64{2.5, 2.0, 0}
	for i := range wantCBM {
		if cbm[i] != wantCBM[i] {
			t.Errorf("CBM строки %d: ожидалось %v, получено %v", i, wantCBM[i], cbm[i])
		}
	}

	weight := floatCol(t, out, "Weight")
	// Строки ABC/X1 берут вес из справочника габаритов, строка без
	// совпадений получает терминальный ноль
	wantWeight := []float64{12, 12, 0}
	for i := range wantWeight {
		if weight[i] != wantWeight[i] {
			t.Errorf("Weight строки %d: ожидалось %v, получено %v", i, wantWeight[i], weight[i])
		}
	}
}

func TestEnrichFallsBackToAverages(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	enricher := NewEnricher(newTestRefs(), now, utils.NewDiscardLogger())

	// Пара (XYZ, X1) отсутствует в справочнике габаритов,
	// но модель X1 есть в справочнике средних
	df := enrichFrame(t,
		[]string{"XYZ", "X1", "2", "", "", "", "", "", "", ""},
	)

	out, err := enricher.Enrich(df)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if got := floatCol(t, out, "CBM")[0]; got != 0.8 {
		t.Errorf("CBM: ожидалось 0.8, получено %v", got)
	}
	if got := floatCol(t, out, "Weight")[0]; got != 7.5 {
		t.Errorf("Weight: ожидалось 7.5, получено %v", got)
	}
}

func TestEnrichOwnWeightWins(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	enricher := NewEnricher(newTestRefs(), now, utils.NewDiscardLogger())

	df := enrichFrame(t,
		[]string{"ABC", "X1", "1", "1", "", "", "", "99.5", "", ""},
	)

	out, err := enricher.Enrich(df)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if got := floatCol(t, out, "Weight")[0]; got != 99.5 {
		t.Errorf("Weight: ожидалось 99.5, получено %v", got)
	}
}

func TestEnrichNormalizesDates(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	enricher := NewEnricher(newTestRefs(), now, utils.NewDiscardLogger())

	df := enrichFrame(t,
		[]string{"ABC", "X1", "1", "1", "", "", "", "", "15.01.2024", "2024-01-02 10:00:00"},
		[]string{"ABC", "X1", "1", "1", "", "", "", "", "мусор", "2024-02-02"},
		[]string{"ABC", "X1", "1", "1", "", "", "", "", "", ""},
	)

	out, err := enricher.Enrich(df)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	delivery := out.Col("DeliveryDate").Records()
	if delivery[0] != "2024-01-15" {
		t.Errorf("DeliveryDate: ожидалось 2024-01-15, получено %s", delivery[0])
	}
	// Нераспознанная дата доставки замещается датой производства
	// плюс 5 дней еще до соединений
	if delivery[1] != "2024-02-07" {
		t.Errorf("DeliveryDate: ожидалось 2024-02-07, получено %s", delivery[1])
	}
	// Обе даты отсутствуют: текущая дата плюс 30 дней
	if delivery[2] != "2024-02-14" {
		t.Errorf("DeliveryDate: ожидалось 2024-02-14, получено %s", delivery[2])
	}

	production := out.Col("ProductionDate").Records()
	if production[0] != "2024-01-02" {
		t.Errorf("ProductionDate: ожидалось 2024-01-02, получено %s", production[0])
	}
	if production[1] != "2024-02-02" {
		t.Errorf("ProductionDate: ожидалось 2024-02-02, получено %s", production[1])
	}
}

func TestEnrichMissingVolumeStaysMissingUntilFinal(t *testing.T) {
	// computeVolume с отсутствующими габаритами дает NaN,
	// который заменяется только на последнем шаге
	if !math.IsNaN(computeVolume(math.NaN(), math.NaN(), 1000, 1000)) {
		t.Fatal("ожидался NaN для неполных габаритов")
	}
}

func TestEnrichDuplicateReferenceKeyFails(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	// Повторяющаяся пара (ABC, X1) размножила бы строки манифеста
	// при левом соединении
	refs := newTestRefs()
	refs.Dimensions = dataframe.New(
		series.New([]string{"ABC", "ABC"}, series.String, "Sender"),
		series.New([]string{"X1", "X1"}, series.String, "Model"),
		series.New([]float64{1.5, 9.9}, series.Float, "Approx_CBM"),
		series.New([]float64{12, 99}, series.Float, "Weight_kg"),
	)
	enricher := NewEnricher(refs, now, utils.NewDiscardLogger())

	df := enrichFrame(t,
		[]string{"ABC", "X1", "1", "", "", "", "", "", "", ""},
	)

	if _, err := enricher.Enrich(df); err == nil {
		t.Fatal("ожидалась ошибка при повторяющемся ключе справочника")
	}
}

func TestEnrichSkipsNegativeReferenceValues(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	// Испорченный справочник габаритов с отрицательными значениями:
	// объем берется со следующего яруса, вес падает до терминального нуля
	refs := &reference.Tables{
		Dimensions: dataframe.New(
			series.New([]string{"ABC"}, series.String, "Sender"),
			series.New([]string{"X1"}, series.String, "Model"),
			series.New([]float64{-3}, series.Float, "Approx_CBM"),
			series.New([]float64{-5}, series.Float, "Weight_kg"),
		),
		Averages: dataframe.New(
			series.New([]string{"X1"}, series.String, "Model"),
			series.New([]float64{0.5}, series.Float, "Avg_CBM"),
			series.New([]float64{-1}, series.Float, "Avg_Weight"),
		),
		Ports: newTestRefs().Ports,
	}
	enricher := NewEnricher(refs, now, utils.NewDiscardLogger())

	df := enrichFrame(t,
		[]string{"ABC", "X1", "2", "", "", "", "", "", "", ""},
	)

	out, err := enricher.Enrich(df)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if got := floatCol(t, out, "CBM")[0]; got != 0.5 {
		t.Errorf("CBM: ожидалось 0.5, получено %v", got)
	}
	if got := floatCol(t, out, "Weight")[0]; got != 0 {
		t.Errorf("Weight: ожидался 0, получено %v", got)
	}
}
