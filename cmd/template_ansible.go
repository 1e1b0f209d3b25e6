package cmd

// PlaybookTemplate renders a task file as an Ansible playbook of
// cisco.iosxr resource module tasks. Config and RunningConfig are
// pre-rendered YAML and text blocks.
const PlaybookTemplate = `- name: {{ .Name | quote }}
  hosts: {{ .Hosts }}
  gather_facts: no
  connection: ansible.netcommon.network_cli

  tasks:
{{- range .Tasks }}
    - name: {{ .Name | quote }}
      cisco.iosxr.iosxr_{{ .Module }}:
{{- if .Config }}
        config:
{{ .Config | trimSuffix "\n" | indent 10 }}
{{- end }}
{{- if .RunningConfig }}
        running_config: |
{{ .RunningConfig | trimSuffix "\n" | indent 10 }}
{{- end }}
        state: {{ .State }}
{{- end }}
`
