package contextstore

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"path"
	"regexp"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// extractPDF shells out to pdftotext. A missing binary or a broken file
// yields a placeholder source rather than a mount failure so the label
// still shows up in the grounding citations.
func extractPDF(p string) (text string, failed bool) {
	out, err := exec.Command("pdftotext", "-layout", p, "-").Output()
	if err != nil {
		return fmt.Sprintf("[PDF text extraction failed: %s]", path.Base(p)), true
	}
	return capText(string(out)), false
}

// extractURL fetches an http(s) page and reduces it to readable text.
func extractURL(rawURL string) (Source, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s", ErrUnresolvable, rawURL)
	}
	req.Header.Set("User-Agent", "live-assistant/1.0")
	resp, err := httpClient.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrUnresolvable, rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("%w: %s: HTTP %d", ErrUnresolvable, rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*maxSourceBytes))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrUnresolvable, rawURL, err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") || strings.Contains(text, "<html") {
		text = htmlToText(text)
	}
	return Source{Label: urlLabel(rawURL), Origin: rawURL, Text: capText(text)}, nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
)

// htmlToText is a crude tag stripper, good enough for grounding text.
func htmlToText(s string) string {
	s = scriptRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, "\n")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRe.ReplaceAllString(s, "\n\n"))
}

func urlLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := path.Base(u.Path)
	if base == "" || base == "/" || base == "." {
		return u.Host
	}
	return u.Host + "/" + base
}
