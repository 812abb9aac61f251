package extractor

const systemPrompt = `You are a medical billing specialist who extracts structured information from payer phone call transcripts. You always answer with a single JSON object and nothing else. When a field is not present in the transcript, use null.`

const priorAuthPrompt = `Analyze this prior authorization phone call transcript.

CONVERSATION TRANSCRIPT:
%s

Extract the following information:

1. AUTHORIZATION STATUS: (approved/denied/pending/peer_to_peer_required/additional_info_required/unknown)
2. AUTHORIZATION NUMBER or REFERENCE NUMBER: Any authorization code, reference number, or tracking number
3. REPRESENTATIVE NAME: Name of insurance company representative
4. REPRESENTATIVE ID: Representative's employee ID or badge number
5. REPRESENTATIVE PHONE: Direct callback number, if given
6. TURNAROUND TIME: How many days until decision (extract number)
7. DOCUMENTATION REQUIRED: List all documents mentioned (medical records, test results, etc.)
8. SUBMISSION METHOD: fax, portal, mail, or email
9. FAX NUMBER: Fax number for document submission
10. SUBMISSION DEADLINE: When documents must be submitted
11. EXPEDITED REVIEW: Was expedited review requested? (true/false)
12. VALID FROM DATE: Authorization start date
13. VALID TO DATE: Authorization end date
14. NEXT STEPS: List any action items mentioned

Return ONLY valid JSON with this structure:
{
    "authorization_status": "approved",
    "authorization_number": "AUTH-12345",
    "reference_number": "REF-ABC123",
    "representative_name": "Jane Smith",
    "representative_id": "REP-456",
    "representative_phone": "1-800-555-0100",
    "turnaround_days": 5,
    "documentation_required": ["medical records", "test results"],
    "submission_method": "fax",
    "fax_number": "1-800-555-1234",
    "submission_deadline": "2025-10-30",
    "expedited_requested": false,
    "valid_from_date": "2025-10-28",
    "valid_to_date": "2025-12-28",
    "next_steps": ["Submit medical records", "Follow up in 5 days"]
}

IMPORTANT: Return ONLY the JSON object, no additional text.`

const denialMgmtPrompt = `Analyze this denial management phone call transcript.

CONVERSATION TRANSCRIPT:
%s

Extract the following information:

1. RESOLUTION STATUS: (overturned/upheld/pending_review/pending_documentation/resubmit_required/appeal_required/peer_to_peer_required/unknown)
2. RESOLUTION PATH: What action is needed (resubmit, appeal, peer-to-peer review, etc.)
3. DETAILED REASON: Specific explanation for the denial beyond the denial code
4. REPRESENTATIVE NAME: Name of insurance company representative
5. REPRESENTATIVE ID: Representative's employee ID or badge number
6. DEPARTMENT: Which department handled the call
7. REQUIRED DOCUMENTS: List all documents needed for resolution
8. SUBMISSION METHOD: fax, portal, mail, or email
9. FAX NUMBER: Fax number for document submission
10. PORTAL URL: URL for online submission
11. SUBMISSION DEADLINE: When documents must be submitted
12. SPECIAL REQUIREMENTS: Any special forms, attestations, or additional requirements
13. REPROCESSING TIME: How long reprocessing will take
14. APPEAL DEADLINE: Deadline for filing an appeal
15. EXPECTED DECISION DATE: When a decision is expected
16. NEXT STEPS: List of action items mentioned
17. REFERENCE NUMBER: Reference number for this inquiry
18. NOTES: Any additional important information

Return ONLY valid JSON with this structure:
{
    "resolution_status": "pending_review",
    "resolution_path": "resubmit with additional documentation",
    "detailed_reason": "Medical necessity not established",
    "representative_name": "John Smith",
    "representative_id": "REP12345",
    "department": "Claims Resolution",
    "required_documents": ["Medical records", "Physician notes"],
    "submission_method": "fax",
    "fax_number": "555-1234",
    "portal_url": null,
    "submission_deadline": "2024-12-31",
    "special_requirements": [],
    "reprocessing_time": "10-14 business days",
    "appeal_deadline": "2024-12-15",
    "expected_decision_date": "2024-12-20",
    "next_steps": ["Gather medical records", "Submit via fax", "Follow up in 2 weeks"],
    "reference_number": "INQ-2024-67890",
    "notes": "Representative provided clear instructions"
}

IMPORTANT: Return ONLY the JSON object, no additional text.`
