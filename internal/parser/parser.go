package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// AveragePriceKeyword in the price column means "price at the 48 hour average".
const AveragePriceKeyword = "avg"

type SellEntry struct {
	Name       string
	Price      int
	UseAverage bool
	Quantity   int
}

type LineFormatError struct {
	Line int
	err  string
}

func (e *LineFormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.err)
}

// FromFile reads a batch sell file. Each line follows the syntax
// name<string>, price<int|avg>[, quantity<int>]. Lines starting with # are
// comments.
func FromFile(path string) ([]SellEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var entries []SellEntry

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 {
			log.Warn("Empty line detected in sell file, skipping it.", "Line", lineNo)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := ParseLine(line)
		if err != nil {
			return nil, &LineFormatError{Line: lineNo, err: err.Error()}
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return entries, nil
}

// ParseLine parses a single "name,price[,quantity]" line.
func ParseLine(line string) (SellEntry, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return SellEntry{}, fmt.Errorf("invalid line format: %s", line)
	}

	entry := SellEntry{
		Name:     strings.TrimSpace(parts[0]),
		Quantity: 1,
	}
	if entry.Name == "" {
		return SellEntry{}, fmt.Errorf("missing item name: %s", line)
	}

	price := strings.TrimSpace(parts[1])
	if strings.EqualFold(price, AveragePriceKeyword) {
		entry.UseAverage = true
	} else {
		p, err := strconv.Atoi(price)
		if err != nil {
			return SellEntry{}, fmt.Errorf("failed to parse price: %w", err)
		}
		if p <= 0 {
			return SellEntry{}, fmt.Errorf("price must be positive: %d", p)
		}
		entry.Price = p
	}

	if len(parts) == 3 {
		q, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return SellEntry{}, fmt.Errorf("failed to parse quantity: %w", err)
		}
		if q <= 0 {
			return SellEntry{}, fmt.Errorf("quantity must be positive: %d", q)
		}
		entry.Quantity = q
	}

	return entry, nil
}
