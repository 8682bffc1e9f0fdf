// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collect

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/tsepg/tsepg/pkg/epg"
)

// excludedServiceIDs renders as a template-friendly comma-separated
// list, the Go equivalent of mustache's {{xsids}} list interpolation
// in original_source. No third-party templating library in the
// retrieved pack offers list interpolation beyond what text/template
// already does with a custom String() helper, so this repo uses the
// standard library here (see DESIGN.md).
type excludedServiceIDs []uint16

func (ids excludedServiceIDs) String() string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}

type templateData struct {
	Xsids excludedServiceIDs
}

// renderHelperCommand renders a scan_services/collect_eits command
// template, substituting {{.Xsids}} with the channel's excluded
// service IDs.
func renderHelperCommand(tmplSrc string, ch epg.Channel) (string, error) {
	tmpl, err := template.New("helper").Parse(tmplSrc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFatalConfig, err)
	}
	var sb strings.Builder
	data := templateData{Xsids: ch.ExcludedServiceIDList()}
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: render helper command: %v", ErrFatalConfig, err)
	}
	return sb.String(), nil
}
