package ftprobe

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// summarySection pairs a report heading with the marker printed in front of
// each host and the bucket it draws from.
type summarySection struct {
	title  string
	marker string
	hosts  []string
}

// sections returns the four summary buckets in report order.
func sections(summary *ScanSummary) []summarySection {
	return []summarySection{
		{"Reachable hosts", "[+]", summary.Reachable},
		{"Unreachable hosts", "[-]", summary.Unreachable},
		{"Hosts with successful anonymous logins", "[+]", summary.AnonLoginOK},
		{"Hosts with failed anonymous logins", "[-]", summary.AnonLoginFailed},
	}
}

// WriteTextSummary persists the summary as plain text: four labeled
// sections, one host per line, each prefixed with a success/failure marker.
func WriteTextSummary(summary *ScanSummary, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "Summary of FTP Anonymous Login Scan")
	fmt.Fprintln(file, "========================================")
	fmt.Fprintln(file)

	for _, section := range sections(summary) {
		fmt.Fprintf(file, "%s:\n", section.title)
		for _, host := range section.hosts {
			fmt.Fprintf(file, "%s %s\n", section.marker, host)
		}
		fmt.Fprintln(file)
	}

	fmt.Fprintf(file, "Hosts scanned: %d, duration: %s\n", summary.TotalHosts, summary.Duration.Round(time.Millisecond))
	return nil
}

// WriteCSVReport generates a per-host CSV report.
func WriteCSVReport(summary *ScanSummary, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Host", "Reachable", "Unreachable Reason", "Anon Login", "Login Response", "Login Attempts"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range summary.Results {
		row := []string{
			result.Host,
			strconv.FormatBool(result.Probe.Reachable),
			result.Probe.Reason,
			result.Login.Status.String(),
			result.Login.Response,
			strconv.Itoa(result.Login.Attempts),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

// WriteJSONReport generates a JSON report.
func WriteJSONReport(summary *ScanSummary, filePath string) error {
	type hostEntry struct {
		Host          string `json:"host"`
		Reachable     bool   `json:"reachable"`
		ProbeReason   string `json:"probe_reason,omitempty"`
		LoginStatus   string `json:"login_status"`
		LoginResponse string `json:"login_response,omitempty"`
		LoginAttempts int    `json:"login_attempts,omitempty"`
	}
	type report struct {
		Generated time.Time   `json:"generated"`
		Hosts     []hostEntry `json:"hosts"`
		Summary   struct {
			TotalHosts      int     `json:"total_hosts"`
			Reachable       int     `json:"reachable"`
			Unreachable     int     `json:"unreachable"`
			AnonLoginOK     int     `json:"anon_login_succeeded"`
			AnonLoginFailed int     `json:"anon_login_failed"`
			DurationSeconds float64 `json:"duration_seconds"`
		} `json:"summary"`
	}

	r := report{Generated: time.Now()}
	for _, result := range summary.Results {
		r.Hosts = append(r.Hosts, hostEntry{
			Host:          result.Host,
			Reachable:     result.Probe.Reachable,
			ProbeReason:   result.Probe.Reason,
			LoginStatus:   result.Login.Status.String(),
			LoginResponse: result.Login.Response,
			LoginAttempts: result.Login.Attempts,
		})
	}
	r.Summary.TotalHosts = summary.TotalHosts
	r.Summary.Reachable = len(summary.Reachable)
	r.Summary.Unreachable = len(summary.Unreachable)
	r.Summary.AnonLoginOK = len(summary.AnonLoginOK)
	r.Summary.AnonLoginFailed = len(summary.AnonLoginFailed)
	r.Summary.DurationSeconds = summary.Duration.Seconds()

	jsonData, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// WritePDFReport generates a PDF summary report.
func WritePDFReport(summary *ScanSummary, filePath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAuthor("ftprobe", true)
	pdf.SetTitle("FTP Anonymous Login Scan Report", true)
	pdf.SetSubject("Security Assessment", true)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 15)
		pdf.Cell(0, 10, "FTP Anonymous Login Scan Report")
		pdf.Ln(20)
	})

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 10, fmt.Sprintf("Page %d / {nb}", pdf.PageNo()))
	})

	pdf.AliasNbPages("{nb}")
	pdf.AddPage()

	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 10, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05 MST")))
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, "Scan Summary")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 8, fmt.Sprintf("Total Hosts Scanned: %d", summary.TotalHosts))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Reachable: %d", len(summary.Reachable)))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Unreachable: %d", len(summary.Unreachable)))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Anonymous Logins Accepted: %d", len(summary.AnonLoginOK)))
	pdf.Ln(8)
	pdf.Cell(40, 8, fmt.Sprintf("Anonymous Logins Rejected: %d", len(summary.AnonLoginFailed)))
	pdf.Ln(15)

	for _, section := range sections(summary) {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 10, section.title)
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 10)
		if len(section.hosts) == 0 {
			pdf.Cell(0, 8, "(none)")
			pdf.Ln(8)
		}
		for _, host := range section.hosts {
			pdf.Cell(0, 8, fmt.Sprintf("%s %s", section.marker, host))
			pdf.Ln(8)
		}
		pdf.Ln(5)
	}

	return pdf.OutputFileAndClose(filePath)
}

// PrintConsoleReport prints the summary buckets to stdout.
func PrintConsoleReport(summary *ScanSummary) {
	fmt.Println()
	fmt.Println("Summary of FTP Anonymous Login Scan")
	fmt.Println("========================================")

	for _, section := range sections(summary) {
		fmt.Printf("\n%s:\n", section.title)
		if len(section.hosts) == 0 {
			fmt.Println("  (none)")
			continue
		}
		for _, host := range section.hosts {
			fmt.Printf("  %s %s\n", section.marker, host)
		}
	}

	fmt.Printf("\nHosts scanned: %d, duration: %s\n", summary.TotalHosts, summary.Duration.Round(time.Millisecond))
}
