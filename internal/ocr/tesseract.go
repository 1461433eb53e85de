// Package ocr provides a Tesseract-based character reader that can stand in
// for the trained classifier.
package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"unicode"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	plateimage "plate-reader/internal/image"
	"plate-reader/pkg/colorutil"
)

// PlateChars is the default character set: digits and upper-case letters.
const PlateChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	minScaleDim = 64 // upscale target for the shorter side
	borderWidth = 12 // white margin Tesseract needs around a glyph
)

// Engine wraps a Tesseract client. The client is not safe for concurrent
// use, so every call holds mu.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	whitelist string
}

// NewEngine creates an engine restricted to whitelist (PlateChars when
// empty).
func NewEngine(whitelist string) (*Engine, error) {
	if whitelist == "" {
		whitelist = PlateChars
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Plates are not words; turn off dictionary correction.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	if err := client.SetWhitelist(whitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	return &Engine{client: client, whitelist: whitelist}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeCharacter reads a single glyph from a normalized character image
// (white glyph on black).
func (e *Engine) RecognizeCharacter(img gocv.Mat) (string, error) {
	text, err := e.recognize(img, gosseract.PSM_SINGLE_CHAR)
	if err != nil {
		return "", err
	}
	return firstAllowed(text, e.whitelist), nil
}

// RecognizeLine reads a whole plate crop as one line of text.
func (e *Engine) RecognizeLine(img gocv.Mat) (string, error) {
	text, err := e.recognize(img, gosseract.PSM_SINGLE_LINE)
	if err != nil {
		return "", err
	}
	return cleanText(text, e.whitelist), nil
}

// Classify adapts the engine to the recognizer's classifier interface.
func (e *Engine) Classify(img gocv.Mat) (string, bool) {
	s, err := e.RecognizeCharacter(img)
	return s, err == nil && s != ""
}

func (e *Engine) recognize(img gocv.Mat, mode gosseract.PageSegMode) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}
	processed := preprocess(img)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// preprocess turns a glyph image into dark text on a white page with a
// margin, upscaled so the shorter side is at least minScaleDim.
func preprocess(src gocv.Mat) gocv.Mat {
	gray := plateimage.ToGray(src)
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Light text on dark: flip so Tesseract sees dark on light
	if gocv.CountNonZero(binary)*2 < binary.Rows()*binary.Cols() {
		gocv.BitwiseNot(binary, &binary)
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	if minDim := min(binary.Rows(), binary.Cols()); minDim < minScaleDim {
		scale := float64(minScaleDim) / float64(minDim)
		gocv.Resize(binary, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		binary.CopyTo(&scaled)
	}

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(scaled, &padded, borderWidth, borderWidth, borderWidth, borderWidth,
		gocv.BorderConstant, colorutil.White)
	return padded
}

// firstAllowed returns the first whitelisted rune of text, upper-cased.
func firstAllowed(text, whitelist string) string {
	for _, r := range strings.ToUpper(text) {
		if strings.ContainsRune(whitelist, r) {
			return string(r)
		}
	}
	return ""
}

// cleanText keeps whitelisted runes, dropping whitespace and punctuation.
func cleanText(text, whitelist string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune(whitelist, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
