// Host-list loading and interactive confirmation for ftprobe.
package ftprobe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Input errors
var (
	ErrEmptyHostList = errors.New("host list is empty")
	ErrHostFileRead  = errors.New("failed to read host list file")
	ErrCIDRTooLarge  = errors.New("CIDR range too large")
)

// maxCIDRHosts caps how many addresses a single CIDR token may expand to.
const maxCIDRHosts = 1024

// InputHandler loads host lists and handles the pre-scan confirmation.
type InputHandler struct {
	logger *zap.Logger
	reader *bufio.Reader
}

// NewInputHandler creates a new instance of InputHandler.
func NewInputHandler(logger *zap.Logger) *InputHandler {
	return &InputHandler{
		logger: logger.With(zap.String("component", "input")),
		reader: bufio.NewReader(os.Stdin),
	}
}

// LoadHosts reads the host list file and returns the raw host tokens.
// Tokens may be separated by newlines or commas; blank tokens are dropped.
// CIDR tokens expand to their member addresses. An unreadable or empty file
// is a terminal input error: the scan must not start with zero hosts.
func (ih *InputHandler) LoadHosts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		ih.logger.Error("Failed to read host list", zap.String("path", path), zap.Error(err))
		return nil, NewAppError(err, ErrCodeInput, ErrHostFileRead.Error(), "input", "load_hosts").WithTarget(path)
	}

	hosts, err := ParseHostList(string(data))
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		ih.printHostListInstructions(path)
		return nil, NewAppError(ErrEmptyHostList, ErrCodeInput, "host list contains no usable entries", "input", "load_hosts").WithTarget(path)
	}

	ih.logger.Info("Host list loaded",
		zap.String("path", path),
		zap.Int("hosts", len(hosts)),
	)
	return hosts, nil
}

// ParseHostList splits raw host-list content into individual tokens. Commas
// are normalized to newlines first, so both delimiters are accepted anywhere
// in the file.
func ParseHostList(content string) ([]string, error) {
	content = strings.ReplaceAll(content, ",", "\n")

	var hosts []string
	for _, line := range strings.Split(content, "\n") {
		token := strings.TrimSpace(line)
		if token == "" {
			continue
		}
		if IsValidCIDR(token) {
			expanded, err := expandCIDR(token)
			if err != nil {
				return nil, err
			}
			hosts = append(hosts, expanded...)
			continue
		}
		hosts = append(hosts, token)
	}
	return hosts, nil
}

// expandCIDR enumerates the host addresses of an IPv4 CIDR block, skipping
// the network and broadcast addresses for blocks smaller than /31.
func expandCIDR(cidr string) ([]string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, NewAppError(err, ErrCodeInput, "invalid CIDR token", "input", "expand_cidr").WithTarget(cidr)
	}

	ones, bits := ipNet.Mask.Size()
	if bits-ones > 10 { // 2^10 = maxCIDRHosts
		return nil, NewAppError(ErrCIDRTooLarge, ErrCodeInput,
			fmt.Sprintf("%s expands to more than %d hosts", cidr, maxCIDRHosts),
			"input", "expand_cidr").WithTarget(cidr)
	}

	var hosts []string
	for addr := ip.Mask(ipNet.Mask); ipNet.Contains(addr); incrementIP(addr) {
		hosts = append(hosts, addr.String())
	}

	// Drop network and broadcast addresses for conventional blocks.
	if bits-ones > 1 && len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}

// incrementIP advances an IP address by one, in place.
func incrementIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

// Confirm prompts the user with a y/n question and returns the answer.
// EOF on stdin (piped input exhausted) counts as a refusal.
func (ih *InputHandler) Confirm(prompt string) bool {
	fmt.Print(prompt)

	input, err := ih.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		ih.logger.Warn("Failed to read confirmation", zap.Error(err))
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes"
}

// printHostListInstructions mirrors the guidance printed when the host list
// turns out to be empty.
func (ih *InputHandler) printHostListInstructions(path string) {
	fmt.Println("Error: host list is empty.")
	fmt.Println("Instructions for adding hosts:")
	fmt.Printf("1. Open %s (or the file given with -file).\n", path)
	fmt.Println("2. Add each host on a new line or separate them with commas.")
	fmt.Println("   Example:")
	fmt.Println("   192.168.1.1")
	fmt.Println("   192.168.1.2, 192.168.1.3")
	fmt.Println("3. Save the file and re-run the scan.")
}
