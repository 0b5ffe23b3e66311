package analysis

// Pattern tables for the rule engine. The tables are pure data: versioned,
// auditable per category, and replaced only by atomic swap of a whole new
// compiled rule set. Matching is case-insensitive (the scanner lower-cases
// the input) for every category except TemplateInjection, whose triggers are
// symbol-based.

// PatternTableVersion identifies the built-in rule set revision.
const PatternTableVersion = "2025-08-01"

// CategoryPatterns is the pattern set for one issue category.
type CategoryPatterns struct {
	Category IssueCategory

	// CaseSensitive disables the lower-cased view for this category.
	CaseSensitive bool

	// IncludeMatchDetail appends the specific matched pattern to the issue
	// detail. Used where the pattern list is large and callers need to know
	// which entry fired.
	IncludeMatchDetail bool

	// Message is the fixed human-readable issue detail.
	Message string

	// Literals are matched as substrings, in order; the first hit flags the
	// category and scanning for it stops.
	Literals []string

	// Regexps are matched after the literals, in order.
	Regexps []string
}

// DefaultPatternTable returns the built-in category-ordered pattern tables.
// The slice order is the fixed evaluation order and must not be changed:
// identical text must produce an identical issue list across runs.
func DefaultPatternTable() []CategoryPatterns {
	return []CategoryPatterns{
		{
			Category: CategorySQLInjection,
			Message:  "Potential SQL injection attempt detected",
			Literals: []string{
				"' or '",
				"' or 1=1",
				"\" or 1=1",
				"or 1=1--",
				"union select",
				"union all select",
				"insert into",
				"drop table",
				"drop database",
				"delete from",
				"truncate table",
				"exec xp_",
				"exec sp_",
				"waitfor delay",
				"benchmark(",
				"sleep(",
				"load_file(",
				"into outfile",
				"information_schema",
				"; --",
				"'--",
				"admin'--",
			},
			Regexps: []string{
				`(?:'|")\s*or\s+[\w'"]+\s*=\s*[\w'"]+`,
				`;\s*(?:drop|alter|create)\s+`,
			},
		},
		{
			Category: CategoryXSS,
			Message:  "Potential XSS attack detected",
			Literals: []string{
				"<script>",
				"<script ",
				"</script>",
				"javascript:",
				"vbscript:",
				"onload=",
				"onerror=",
				"onclick=",
				"onmouseover=",
				"onfocus=",
				"<iframe",
				"<embed",
				"<object",
				"document.cookie",
				"document.write",
				"window.location",
				"eval(atob",
				"srcdoc=",
				"expression(",
			},
			Regexps: []string{
				`<\s*img[^>]+onerror\s*=`,
				`<\s*svg[^>]+onload\s*=`,
			},
		},
		{
			Category: CategoryCommandInjection,
			Message:  "Potential command injection attempt detected",
			Literals: []string{
				"; rm -rf",
				"; rm ",
				"; del ",
				"& echo",
				"&& cat ",
				"| cat ",
				"; cat ",
				"| nc ",
				"| netcat ",
				"; wget ",
				"; curl ",
				"$(cat ",
				"`cat ",
				"; shutdown",
				"; reboot",
				"/etc/passwd",
				"/etc/shadow",
				"cmd.exe /c",
				"powershell -",
				"; chmod 777",
				"2>/dev/null",
				"/dev/tcp/",
			},
			Regexps: []string{
				"[;&|]\\s*(?:ls|id|whoami|uname)\\b",
				"\\$\\([^)]*\\)",
			},
		},
		{
			Category: CategoryNoSQLInjection,
			Message:  "Potential NoSQL injection attempt detected",
			Literals: []string{
				"$where",
				"$ne",
				"$gt",
				"$lt",
				"$gte",
				"$lte",
				"$regex",
				"$exists",
				"$nin",
				"$elemmatch",
				"mapreduce",
				"db.eval",
				"this.password",
				"sleep(5000)",
			},
		},
		{
			Category: CategoryLDAPInjection,
			Message:  "Potential LDAP injection attempt detected",
			Literals: []string{
				"*)(",
				")(|",
				")(&",
				"*))%00",
				"admin*)((",
				"(|(objectclass=*))",
				"(&(objectclass=",
				"(uid=*))",
				"(cn=*))",
			},
		},
		{
			Category: CategoryPathTraversal,
			Message:  "Potential path traversal attempt detected",
			Literals: []string{
				"../",
				"..\\",
				"%2e%2e%2f",
				"%2e%2e/",
				"..%2f",
				"%2e%2e%5c",
				"..%5c",
				"....//",
				"....\\\\",
				"%c0%ae%c0%ae/",
				"file:///",
				"\\\\..\\",
			},
		},
		{
			Category: CategoryXMLXXE,
			Message:  "Potential XML external entity attack detected",
			Literals: []string{
				"<!entity",
				"<!doctype",
				"system \"file:",
				"system 'file:",
				"system \"http:",
				"system \"expect:",
				"public \"-//",
				"xmlns:xi=",
				"<xi:include",
			},
		},
		{
			// Symbol-based triggers; matched against the original-case text.
			Category:      CategoryTemplateInjection,
			CaseSensitive: true,
			Message:       "Potential template injection attempt detected",
			Literals: []string{
				"{{",
				"${",
				"<%",
				"#{",
				"{%",
			},
		},
		{
			Category:           CategoryCodeExecution,
			IncludeMatchDetail: true,
			Message:            "Potential code execution attempt detected",
			Literals: []string{
				"eval(",
				"exec(",
				"execfile(",
				"compile(",
				"system(",
				"shell_exec(",
				"passthru(",
				"popen(",
				"proc_open(",
				"pcntl_exec(",
				"assert(",
				"create_function(",
				"call_user_func(",
				"call_user_func_array(",
				"preg_replace_callback(",
				"array_map(",
				"array_filter(",
				"usort(",
				"register_shutdown_function(",
				"register_tick_function(",
				"os.system(",
				"os.popen(",
				"os.execv(",
				"os.execve(",
				"os.spawnl(",
				"subprocess.call(",
				"subprocess.popen(",
				"subprocess.run(",
				"subprocess.check_output(",
				"runtime.getruntime().exec(",
				"processbuilder(",
				"child_process.exec(",
				"child_process.spawn(",
				"child_process.execsync(",
				"require('child_process')",
				"new function(",
				"settimeout(",
				"setinterval(",
				"__import__(",
				"getattr(",
				"globals()[",
				"locals()[",
				"pickle.loads(",
				"marshal.loads(",
				"yaml.load(",
				"vm.runinnewcontext(",
				"reflect.makefunc(",
				"method_invoke(",
				"classloader",
				"unserialize(",
				"igbinary_unserialize(",
				"wddx_deserialize(",
			},
		},
		{
			Category:           CategoryMalwareSignature,
			IncludeMatchDetail: true,
			Message:            "Potential malware signature detected",
			Literals: []string{
				"base64_decode",
				"eval(base64",
				"eval(gzinflate",
				"eval(gzuncompress",
				"eval(str_rot13",
				"gzinflate(base64_decode",
				"str_rot13(base64_decode",
				"curl_exec(",
				"curl_multi_exec(",
				"file_get_contents(",
				"file_put_contents(",
				"fopen(",
				"fwrite(",
				"fputs(",
				"unlink(",
				"chmod(",
				"chown(",
				"chgrp(",
				"rename(",
				"move_uploaded_file(",
				"copy(",
				"mkdir(",
				"rmdir(",
				"symlink(",
				"link(",
				"readfile(",
				"highlight_file(",
				"show_source(",
				"php_uname(",
				"posix_getpwuid(",
				"posix_geteuid(",
				"ini_set(",
				"set_time_limit(0)",
				"error_reporting(0)",
				"ignore_user_abort(",
				"extract($_",
				"$_request[",
				"$_get[",
				"$_post[",
				"$_cookie[",
				"$globals[",
				"assert_options(",
				"preg_replace(\"/e",
				"preg_replace('/e",
				"powershell -enc",
				"powershell -encodedcommand",
				"powershell -nop",
				"-windowstyle hidden",
				"invoke-expression",
				"invoke-webrequest",
				"downloadstring(",
				"downloadfile(",
				"certutil -urlcache",
				"certutil -decode",
				"bitsadmin /transfer",
				"rundll32 ",
				"regsvr32 /s /u /i",
				"mshta http",
				"wscript.shell",
				"scripting.filesystemobject",
				"adodb.stream",
				"createobject(",
				"shellexecute(",
				"urldownloadtofile",
				"virtualalloc",
				"writeprocessmemory",
				"createremotethread",
				"loadlibrarya",
				"getprocaddress",
				"ntunmapviewofsection",
				"setwindowshookex",
				"keylogger",
				"mimikatz",
				"sekurlsa::",
				"lsass.exe",
				"procdump -ma",
				"meterpreter",
				"metasploit",
				"msfvenom",
				"reverse_tcp",
				"bind_tcp",
				"shellcode",
				"nop sled",
				"\\x90\\x90\\x90",
				"xor eax, eax",
				"cryptolocker",
				"ransom",
				"vssadmin delete shadows",
				"bcdedit /set",
				"wbadmin delete catalog",
				"cipher /w",
				"attrib +h +s",
				"netsh firewall set opmode disable",
				"net user /add",
				"net localgroup administrators",
				"schtasks /create",
				"at \\\\",
				"psexec \\\\",
				"wmic process call create",
				"taskkill /f /im",
				"reg add hklm\\software\\microsoft\\windows\\currentversion\\run",
				"crontab -",
				"/etc/rc.local",
				"ld_preload",
				"chattr +i",
				"nohup ./",
				"botnet",
				"ddos",
				"exploit-db",
				"cve-",
				"0day",
				"zero-day payload",
				"privilege escalation",
				"rootkit",
				"trojan",
				"backdoor",
			},
		},
	}
}
