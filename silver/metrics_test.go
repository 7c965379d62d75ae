package silver

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/LilVoxy/cargo_pipeline/reference"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Справочники без совпадений по габаритам и средним: проверяется путь,
// когда объем берется из данных самой строки
func newMetricsRefs() *reference.Tables {
	return &reference.Tables{
		Dimensions: dataframe.New(
			series.New([]string{"ZZZ"}, series.String, "Sender"),
			series.New([]string{"Q0"}, series.String, "Model"),
			series.New([]float64{1}, series.Float, "Approx_CBM"),
			series.New([]float64{1}, series.Float, "Weight_kg"),
		),
		Averages: dataframe.New(
			series.New([]string{"Q0"}, series.String, "Model"),
			series.New([]float64{1}, series.Float, "Avg_CBM"),
			series.New([]float64{1}, series.Float, "Avg_Weight"),
		),
		Ports: dataframe.New(
			series.New([]string{"A", "B"}, series.String, "Port"),
			series.New([]string{"Asia", "Europe"}, series.String, "Continent"),
		),
	}
}

var manifestHeader = []string{
	"Order_No", "Sender", "Model", "Units", "CBM", "Length", "Width", "Height",
	"Weight", "DeliveryDate", "ProductionDate", "Load_Port", "Discharge_Port", "Segment",
}

// deriveFixture прогоняет очищенные записи через обогащение и расчет метрик
func deriveFixture(t *testing.T, rows ...[]string) dataframe.DataFrame {
	t.Helper()

	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	logger := utils.NewDiscardLogger()
	refs := newMetricsRefs()

	records := [][]string{manifestHeader}
	records = append(records, rows...)

	df, err := Frame(records)
	if err != nil {
		t.Fatalf("не удалось построить фрейм: %v", err)
	}

	df, err = NewEnricher(refs, now, logger).Enrich(df)
	if err != nil {
		t.Fatalf("ошибка обогащения: %v", err)
	}

	df, err = NewMetricsProcessor(refs, now, logger).Derive(df)
	if err != nil {
		t.Fatalf("ошибка расчета метрик: %v", err)
	}

	return df
}

func TestDeriveDeliveryDateDefaults(t *testing.T) {
	df := deriveFixture(t,
		[]string{"ord-1", "ABC", "X1", "10", "", "2000", "1000", "1000", "", "", "2024-01-01", "A", "B", "FCL"},
		[]string{"ord-2", "DEF", "Z9", "4", "1.25", "", "", "", "3.5", "2024-02-10", "", "C", "B", "LCL"},
		[]string{"ord-3", "DEF", "Z9", "1", "1", "", "", "", "1", "", "", "A", "A", "FCL"},
	)

	delivery := df.Col("DeliveryDate").Records()

	// Дата производства плюс 5 дней
	if delivery[0] != "2024-01-06" {
		t.Errorf("ожидалось 2024-01-06, получено %s", delivery[0])
	}
	// Явная дата доставки сохраняется
	if delivery[1] != "2024-02-10" {
		t.Errorf("ожидалось 2024-02-10, получено %s", delivery[1])
	}
	// Обе даты отсутствуют: текущая дата плюс 30 дней
	if delivery[2] != "2024-02-14" {
		t.Errorf("ожидалось 2024-02-14, получено %s", delivery[2])
	}
}

func TestDeriveResultCBM(t *testing.T) {
	df := deriveFixture(t,
		[]string{"ord-1", "ABC", "X1", "10", "", "2000", "1000", "1000", "", "", "2024-01-01", "A", "B", "FCL"},
		[]string{"ord-2", "DEF", "Z9", "4", "1.25", "", "", "", "3.5", "2024-02-10", "", "C", "B", "LCL"},
	)

	result := df.Col("Result_CBM").Float()

	if result[0] != 20 {
		t.Errorf("Result_CBM: ожидалось 20, получено %v", result[0])
	}
	if result[1] != 5 {
		t.Errorf("Result_CBM: ожидалось 5, получено %v", result[1])
	}
}

func TestDeriveTradeLane(t *testing.T) {
	df := deriveFixture(t,
		[]string{"ord-1", "ABC", "X1", "10", "1", "", "", "", "", "", "", "A", "B", "FCL"},
		[]string{"ord-2", "DEF", "Z9", "4", "1", "", "", "", "", "", "", "C", "B", "LCL"},
		[]string{"ord-3", "DEF", "Z9", "1", "1", "", "", "", "", "", "", "C", "D", "FCL"},
	)

	trade := df.Col("Trade").Records()

	if trade[0] != "Asia-Europe" {
		t.Errorf("Trade: ожидалось Asia-Europe, получено %s", trade[0])
	}
	// Неизвестные порты участвуют в конкатенации маркером отсутствия
	if trade[1] != "NaN-Europe" {
		t.Errorf("Trade: ожидалось NaN-Europe, получено %s", trade[1])
	}
	if trade[2] != "NaN-NaN" {
		t.Errorf("Trade: ожидалось NaN-NaN, получено %s", trade[2])
	}
}

func TestDeriveDropsIntermediateColumns(t *testing.T) {
	df := deriveFixture(t,
		[]string{"ord-1", "ABC", "X1", "10", "1", "2000", "1000", "1000", "5", "2024-02-01", "2024-01-01", "A", "B", "FCL"},
	)

	want := []string{
		"Order_No", "Sender", "Model", "Units", "CBM", "Weight",
		"DeliveryDate", "Load_Port", "Discharge_Port", "Segment",
		"Result_CBM", "Trade",
	}
	sort.Strings(want)

	got := append([]string(nil), df.Names()...)
	sort.Strings(got)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("итоговые колонки не совпадают:\nожидалось %v\nполучено  %v", want, got)
	}
}

func TestDeriveDuplicatePortFails(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	logger := utils.NewDiscardLogger()

	// Повторяющийся код порта размножил бы строки при соединении
	refs := newMetricsRefs()
	refs.Ports = dataframe.New(
		series.New([]string{"A", "A"}, series.String, "Port"),
		series.New([]string{"Asia", "Europe"}, series.String, "Continent"),
	)

	records := [][]string{
		manifestHeader,
		{"ord-1", "ABC", "X1", "10", "1", "", "", "", "", "", "", "A", "B", "FCL"},
	}

	df, err := Frame(records)
	if err != nil {
		t.Fatalf("не удалось построить фрейм: %v", err)
	}

	df, err = NewEnricher(refs, now, logger).Enrich(df)
	if err != nil {
		t.Fatalf("ошибка обогащения: %v", err)
	}

	if _, err := NewMetricsProcessor(refs, now, logger).Derive(df); err == nil {
		t.Fatal("ожидалась ошибка при повторяющемся коде порта")
	}
}
