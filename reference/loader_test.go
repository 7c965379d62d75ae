package reference

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

func newTestLoader(t *testing.T) (*Loader, storage.BlobStore) {
	t.Helper()

	store := storage.NewLocalStore(t.TempDir())
	return NewLoader(store, utils.NewDiscardLogger()), store
}

func putCSV(t *testing.T, store storage.BlobStore, object, content string) {
	t.Helper()

	w, err := store.Create(context.Background(), object)
	if err != nil {
		t.Fatalf("не удалось создать объект %s: %v", object, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("не удалось записать объект %s: %v", object, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("не удалось закрыть объект %s: %v", object, err)
	}
}

func TestLoadDimensions(t *testing.T) {
	loader, store := newTestLoader(t)
	putCSV(t, store, "reference/model_dimensions.csv",
		"Sender,Model,Approx_CBM,Weight_kg\n"+
			" abc ,x1,1.5,12\n"+
			"DEF,y2,,\n"+
			",z3,2,2\n")

	df, err := loader.LoadDimensions(context.Background(), "reference/model_dimensions.csv")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Строка с пустым Sender пропущена
	if df.Nrow() != 2 {
		t.Fatalf("ожидалось 2 строки, получено %d", df.Nrow())
	}

	senders := df.Col("Sender").Records()
	modelNames := df.Col("Model").Records()
	if senders[0] != "ABC" || modelNames[0] != "X1" {
		t.Errorf("ключи не приведены к верхнему регистру: %v / %v", senders, modelNames)
	}

	approx := df.Col("Approx_CBM").Float()
	weights := df.Col("Weight_kg").Float()
	if approx[0] != 1.5 || weights[0] != 12 {
		t.Errorf("числовые значения не совпадают: %v / %v", approx, weights)
	}
	// Пустые числовые ячейки представляются как NaN
	if !math.IsNaN(approx[1]) || !math.IsNaN(weights[1]) {
		t.Errorf("пустые значения должны быть NaN: %v / %v", approx[1], weights[1])
	}
}

func TestLoadDimensionsDuplicateKeyFirstWins(t *testing.T) {
	loader, store := newTestLoader(t)
	// Пара (ABC, X1) повторяется с разным регистром: после нормализации
	// ключей действует первая строка
	putCSV(t, store, "reference/model_dimensions.csv",
		"Sender,Model,Approx_CBM,Weight_kg\n"+
			"abc,x1,1.5,12\n"+
			"ABC,X1,9.9,99\n"+
			"DEF,y2,2,4\n")

	df, err := loader.LoadDimensions(context.Background(), "reference/model_dimensions.csv")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if df.Nrow() != 2 {
		t.Fatalf("ожидалось 2 строки, получено %d", df.Nrow())
	}
	if got := df.Col("Approx_CBM").Float()[0]; got != 1.5 {
		t.Errorf("Approx_CBM: ожидалось значение первой строки 1.5, получено %v", got)
	}
}

func TestLoadAverages(t *testing.T) {
	loader, store := newTestLoader(t)
	putCSV(t, store, "reference/model_averages.csv",
		"Model,Avg_CBM,Avg_Weight\n"+
			"x1,0.8,7.5\n"+
			"y2,,3\n"+
			",1,1\n")

	df, err := loader.LoadAverages(context.Background(), "reference/model_averages.csv")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if df.Nrow() != 2 {
		t.Fatalf("ожидалось 2 строки, получено %d", df.Nrow())
	}

	if got := df.Col("Model").Records()[0]; got != "X1" {
		t.Errorf("ключ не приведен к верхнему регистру: %s", got)
	}

	avgCBM := df.Col("Avg_CBM").Float()
	if avgCBM[0] != 0.8 || !math.IsNaN(avgCBM[1]) {
		t.Errorf("Avg_CBM не совпадает: %v", avgCBM)
	}
	if got := df.Col("Avg_Weight").Float()[1]; got != 3 {
		t.Errorf("Avg_Weight: ожидалось 3, получено %v", got)
	}
}

func TestLoadPorts(t *testing.T) {
	loader, store := newTestLoader(t)
	putCSV(t, store, "reference/port_continents.csv",
		"Port,Continent\n"+
			" Shanghai ,Asia\n"+
			"rotterdam,Europe\n"+
			",Africa\n")

	df, err := loader.LoadPorts(context.Background(), "reference/port_continents.csv")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if df.Nrow() != 2 {
		t.Fatalf("ожидалось 2 строки, получено %d", df.Nrow())
	}

	// Регистр кодов портов сохраняется, пробелы обрезаются
	ports := df.Col("Port").Records()
	if ports[0] != "Shanghai" || ports[1] != "rotterdam" {
		t.Errorf("коды портов не совпадают: %v", ports)
	}
	if got := df.Col("Continent").Records()[1]; got != "Europe" {
		t.Errorf("континент не совпадает: %s", got)
	}
}

func TestLoadPortsDuplicateFirstWins(t *testing.T) {
	loader, store := newTestLoader(t)
	putCSV(t, store, "reference/port_continents.csv",
		"Port,Continent\n"+
			"Shanghai,Asia\n"+
			"Shanghai,Europe\n")

	df, err := loader.LoadPorts(context.Background(), "reference/port_continents.csv")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if df.Nrow() != 1 {
		t.Fatalf("ожидалась 1 строка, получено %d", df.Nrow())
	}
	if got := df.Col("Continent").Records()[0]; got != "Asia" {
		t.Errorf("Continent: ожидалось значение первой строки Asia, получено %s", got)
	}
}

func TestLoadPortsEmpty(t *testing.T) {
	loader, store := newTestLoader(t)
	putCSV(t, store, "reference/port_continents.csv", "Port,Continent\n")

	df, err := loader.LoadPorts(context.Background(), "reference/port_continents.csv")
	if err != nil {
		t.Fatalf("пустой справочник не должен быть ошибкой: %v", err)
	}

	if df.Nrow() != 0 {
		t.Errorf("ожидался пустой справочник, получено %d строк", df.Nrow())
	}
	names := df.Names()
	if len(names) != 2 || names[0] != "Port" || names[1] != "Continent" {
		t.Errorf("неожиданные колонки пустого справочника: %v", names)
	}
}

func TestLoadAll(t *testing.T) {
	loader, store := newTestLoader(t)
	cfg := config.DefaultReferenceConfig

	putCSV(t, store, cfg.DimensionsObject, "Sender,Model,Approx_CBM,Weight_kg\nABC,X1,1.5,12\n")
	putCSV(t, store, cfg.AveragesObject, "Model,Avg_CBM,Avg_Weight\nX1,0.8,7.5\n")
	putCSV(t, store, cfg.PortsObject, "Port,Continent\nShanghai,Asia\n")

	tables, err := loader.LoadAll(context.Background(), cfg)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if tables.Dimensions.Nrow() != 1 || tables.Averages.Nrow() != 1 || tables.Ports.Nrow() != 1 {
		t.Errorf("неожиданные размеры справочников: %d/%d/%d",
			tables.Dimensions.Nrow(), tables.Averages.Nrow(), tables.Ports.Nrow())
	}
}

func TestLoadAllMissingObject(t *testing.T) {
	loader, _ := newTestLoader(t)

	_, err := loader.LoadAll(context.Background(), config.DefaultReferenceConfig)
	if !errors.Is(err, storage.ErrObjectNotExist) {
		t.Fatalf("ожидалась ошибка отсутствующего объекта, получено %v", err)
	}
}
