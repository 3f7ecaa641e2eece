/*
Copyright 2026 KubeNexus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package topology

import "testing"

func TestRequest_GetNICGroup(t *testing.T) {
	group := ProcessingGroup{
		ProcCores: []Core{{Direction: DirRX}, {Direction: DirTX}, {Direction: DirNone}},
	}
	req := &Request{ProcessingGroups: []ProcessingGroup{group}}
	req.NICCorePairing = []NICCorePairing{
		{RxCore: &req.ProcessingGroups[0].ProcCores[0], TxCore: &req.ProcessingGroups[0].ProcCores[1]},
	}

	rx := &req.ProcessingGroups[0].ProcCores[0]
	tx := &req.ProcessingGroups[0].ProcCores[1]
	other := &req.ProcessingGroups[0].ProcCores[2]

	if p := req.GetNICGroup(rx); p == nil || p != &req.NICCorePairing[0] {
		t.Errorf("expected rx core to resolve to the sole pairing")
	}
	if p := req.GetNICGroup(tx); p == nil || p != &req.NICCorePairing[0] {
		t.Errorf("expected tx core to resolve to the sole pairing")
	}
	if p := req.GetNICGroup(other); p != nil {
		t.Errorf("expected unpaired core to resolve to nil, got %+v", p)
	}
}

func TestDirection_String(t *testing.T) {
	cases := map[Direction]string{DirNone: "none", DirRX: "rx", DirTX: "tx"}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", d, got, want)
		}
	}
}
