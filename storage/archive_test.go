package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/LilVoxy/cargo_pipeline/utils"
)

func TestCompressRoundtrip(t *testing.T) {
	original := []byte("Order_No,Units\nord-1,10\nord-2,4\n")

	decompressed, err := Decompress(Compress(original))
	if err != nil {
		t.Fatalf("неожиданная ошибка распаковки: %v", err)
	}
	if !bytes.Equal(decompressed, original) {
		t.Errorf("данные после сжатия и распаковки не совпадают")
	}
}

func TestDecompressGarbage(t *testing.T) {
	if _, err := Decompress([]byte("это не snappy")); err == nil {
		t.Error("ожидалась ошибка распаковки произвольных байтов")
	}
}

func TestArchiverArchive(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	archiver := NewArchiver(store, utils.NewDiscardLogger())

	const manifest = "Order_No,Units\nord-1,10\n"
	putObject(t, store, "landing/manifest_2024_w3.csv", manifest)

	backup, err := archiver.Archive(context.Background(), "landing/manifest_2024_w3.csv", "backup/")
	if err != nil {
		t.Fatalf("неожиданная ошибка архивирования: %v", err)
	}
	if backup != "backup/manifest_2024_w3.csv.snappy" {
		t.Errorf("неожиданное имя резервной копии: %s", backup)
	}

	// Оригинал удален из зоны приземления
	if _, err := store.Open(context.Background(), "landing/manifest_2024_w3.csv"); !errors.Is(err, ErrObjectNotExist) {
		t.Errorf("оригинал должен быть удален, получено %v", err)
	}

	// Резервная копия распаковывается в исходный манифест
	data, err := Decompress([]byte(getObject(t, store, backup)))
	if err != nil {
		t.Fatalf("не удалось распаковать резервную копию: %v", err)
	}
	if string(data) != manifest {
		t.Errorf("резервная копия не совпадает с оригиналом: %q", data)
	}
}

func TestArchiverArchiveMissingObject(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	archiver := NewArchiver(store, utils.NewDiscardLogger())

	_, err := archiver.Archive(context.Background(), "landing/нет_такого.csv", "backup/")
	if !errors.Is(err, ErrObjectNotExist) {
		t.Fatalf("ожидалась ошибка отсутствующего объекта, получено %v", err)
	}
}

func TestArchiverRestore(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	archiver := NewArchiver(store, utils.NewDiscardLogger())

	const manifest = "Order_No,Units\nord-1,10\n"
	putObject(t, store, "landing/manifest_2024_w3.csv", manifest)

	backup, err := archiver.Archive(context.Background(), "landing/manifest_2024_w3.csv", "backup/")
	if err != nil {
		t.Fatalf("неожиданная ошибка архивирования: %v", err)
	}

	restored, err := archiver.Restore(context.Background(), backup, "landing/")
	if err != nil {
		t.Fatalf("неожиданная ошибка восстановления: %v", err)
	}
	if restored != "landing/manifest_2024_w3.csv" {
		t.Errorf("неожиданное имя восстановленного объекта: %s", restored)
	}

	if got := getObject(t, store, restored); got != manifest {
		t.Errorf("восстановленный манифест не совпадает с оригиналом: %q", got)
	}
}
