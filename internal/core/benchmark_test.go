package core

import (
	"context"
	"testing"
)

// BenchmarkParseMoney covers the Brazilian currency shapes seen in exports.
func BenchmarkParseMoney(b *testing.B) {
	inputs := []string{
		"R$ 3,50",
		"R$ 1.234,56",
		"12.5",
		"-",
		"",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			ParseMoney(in)
		}
	}
}

func BenchmarkParseStock(b *testing.B) {
	inputs := []string{"8pc + 9un", "24un", "3 fardos", "-"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			ParseStock(in, 12)
		}
	}
}

// BenchmarkTokenizeLine measures a line with quoted commas, the slow path.
func BenchmarkTokenizeLine(b *testing.B) {
	line := productLine("Cerveja Skol Lata 350ml", "Cerveja")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TokenizeLine(line)
	}
}

func BenchmarkParseText(b *testing.B) {
	for _, size := range []struct {
		name string
		rows int
	}{
		{"100rows", 100},
		{"1000rows", 1000},
		{"10000rows", 10000},
	} {
		text := nProducts(size.rows, "Cerveja")
		b.Run(size.name, func(b *testing.B) {
			b.SetBytes(int64(len(text)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ParseText(text)
			}
		})
	}
}

// BenchmarkImport runs the whole pipeline against in-memory fakes, once
// sequentially and once with parallel chunk inserts.
func BenchmarkImport(b *testing.B) {
	data := []byte(nProducts(1000, "Cerveja"))

	for _, workers := range []int{1, 4} {
		name := "sequential"
		if workers > 1 {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				im := NewImporter(&fakeStore{}, newFakeDirectory("Cerveja"), quietOptions(50, workers))
				result, err := im.Import(context.Background(), File{Name: "produtos.csv", Data: data}, nil)
				if err != nil {
					b.Fatal(err)
				}
				if result.SuccessCount != 1000 {
					b.Fatalf("SuccessCount = %d, want 1000", result.SuccessCount)
				}
			}
		})
	}
}

func BenchmarkMapError(b *testing.B) {
	errs := []error{
		newPipelineError(PhaseValidating, KindStructural, nil, "missing required columns: Categoria"),
		ErrTooManyImports,
		context.DeadlineExceeded,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, err := range errs {
			MapError(err)
		}
		FormatUserError(ErrImportNotFound)
	}
}
